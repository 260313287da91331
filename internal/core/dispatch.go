package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"gtasync/pkg/domain"
)

// Command names accepted by Dispatch.
const (
	CommandLoad                        = "load"
	CommandUnload                      = "unload"
	CommandOpen                        = "open"
	CommandRefreshElements             = "refreshElements"
	CommandRefreshOpened               = "refreshOpened"
	CommandTmpElement                  = "tmpElement"
	CommandLogin                       = "login"
	CommandLogout                      = "logout"
	CommandSwitchStructure             = "switchStructure"
	CommandAddPointage                 = "addPointage"
	CommandRemovePointage              = "removePointage"
	CommandResetPointage               = "resetPointage"
	CommandAddPersonnel                = "addPersonnel"
	CommandRemovePersonnel             = "removePersonnel"
	CommandResetPersonnel              = "resetPersonnel"
	CommandRefreshPersonnel            = "refreshPersonnel"
	CommandRefreshPersonnelGtaPeriodes = "refreshPersonnelGtaPeriodes"
	CommandAddSemaines                 = "addSemaines"
	CommandRefreshSemaines             = "refreshSemaines"
)

var commandNames = []string{
	CommandLoad, CommandUnload, CommandOpen,
	CommandRefreshElements, CommandRefreshOpened, CommandTmpElement,
	CommandLogin, CommandLogout, CommandSwitchStructure,
	CommandAddPointage, CommandRemovePointage, CommandResetPointage,
	CommandAddPersonnel, CommandRemovePersonnel, CommandResetPersonnel,
	CommandRefreshPersonnel, CommandRefreshPersonnelGtaPeriodes,
	CommandAddSemaines, CommandRefreshSemaines,
}

// Commands lists the command vocabulary in a stable order.
func Commands() []string {
	return slices.Clone(commandNames)
}

// Command is a named command with its JSON payload, as received from a
// transport.
type Command struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DispatchResult carries the outcome of commands that produce one. Only load
// does today.
type DispatchResult struct {
	Load *LoadResult `json:"load,omitempty"`
}

// Dispatch decodes cmd.Payload into the input of the named command and runs
// it. Unknown names wrap domain.ErrUnknownCommand; undecodable payloads are
// reported as *DecodeError. Neither touches the store.
func (s *Service) Dispatch(ctx context.Context, cmd Command) (DispatchResult, error) {
	var result DispatchResult
	err := s.dispatch(ctx, cmd, &result)
	if kind := ErrorKind(err); kind == "unknown_command" || kind == "decode" {
		s.loggerFor(ctx).Warn("command not dispatched",
			"operation", cmd.Name,
			"error_kind", kind,
			"error", err,
		)
	}
	return result, err
}

func (s *Service) dispatch(ctx context.Context, cmd Command, result *DispatchResult) error {
	switch cmd.Name {
	case CommandLoad:
		id, err := decodeID(cmd)
		if err != nil {
			return err
		}
		res := s.Load(ctx, id)
		if res.Err != nil {
			return res.Err
		}
		result.Load = &res
		return nil
	case CommandUnload:
		return s.Unload(ctx)
	case CommandOpen:
		var e *Element
		if err := decodePayload(cmd, &e); err != nil {
			return err
		}
		return s.Open(ctx, e)
	case CommandRefreshElements:
		var payload ElementsPayload
		if err := decodePayload(cmd, &payload); err != nil {
			return err
		}
		return s.RefreshElements(ctx, payload)
	case CommandRefreshOpened:
		var patch ElementPatch
		if err := decodePayload(cmd, &patch); err != nil {
			return err
		}
		return s.RefreshOpened(ctx, patch)
	case CommandTmpElement:
		var e *Element
		if err := decodeOptional(cmd, &e); err != nil {
			return err
		}
		return s.SetTmpElement(ctx, e)
	case CommandLogin:
		var payload LoginPayload
		if err := decodePayload(cmd, &payload); err != nil {
			return err
		}
		return s.Login(ctx, payload)
	case CommandLogout:
		return s.Logout(ctx)
	case CommandSwitchStructure:
		id, err := decodeID(cmd)
		if err != nil {
			return err
		}
		return s.SwitchStructure(ctx, id)
	case CommandAddPointage:
		var p *Pointage
		if err := decodePayload(cmd, &p); err != nil {
			return err
		}
		return s.AddPointage(ctx, p)
	case CommandRemovePointage:
		var p *Pointage
		if err := decodePayload(cmd, &p); err != nil {
			return err
		}
		return s.RemovePointage(ctx, p)
	case CommandResetPointage:
		return s.ResetPointage(ctx)
	case CommandAddPersonnel:
		batch, err := decodePersonnel(cmd)
		if err != nil {
			return err
		}
		return s.AddPersonnel(ctx, batch.Records()...)
	case CommandRemovePersonnel:
		batch, err := decodePersonnel(cmd)
		if err != nil {
			return err
		}
		return s.RemovePersonnel(ctx, batch.Records()...)
	case CommandResetPersonnel:
		return s.ResetPersonnel(ctx)
	case CommandRefreshPersonnel:
		var patches []PersonnelPatch
		if err := decodeList(cmd, &patches); err != nil {
			return err
		}
		return s.RefreshPersonnel(ctx, patches)
	case CommandRefreshPersonnelGtaPeriodes:
		var periods []PeriodPatch
		if err := decodeList(cmd, &periods); err != nil {
			return err
		}
		return s.RefreshPersonnelGtaPeriodes(ctx, periods)
	case CommandAddSemaines:
		var payload WeeksPayload
		if err := decodePayload(cmd, &payload); err != nil {
			return err
		}
		return s.AddSemaines(ctx, payload)
	case CommandRefreshSemaines:
		var weeks []*WeekRecord
		if err := decodeList(cmd, &weeks); err != nil {
			return err
		}
		return s.RefreshSemaines(ctx, weeks)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd.Name)
}

var (
	errPayloadRequired = errors.New("payload required")
	errNullID          = errors.New("id must not be null")
)

func decodePayload(cmd Command, dst any) error {
	if len(bytes.TrimSpace(cmd.Payload)) == 0 {
		return &DecodeError{Command: cmd.Name, Err: errPayloadRequired}
	}
	if err := json.Unmarshal(cmd.Payload, dst); err != nil {
		return &DecodeError{Command: cmd.Name, Err: err}
	}
	return nil
}

func decodeOptional(cmd Command, dst any) error {
	if len(bytes.TrimSpace(cmd.Payload)) == 0 {
		return nil
	}
	return decodePayload(cmd, dst)
}

// decodeList accepts either a JSON array or a single object standing for a
// one-element list.
func decodeList[T any](cmd Command, dst *[]T) error {
	raw := bytes.TrimSpace(cmd.Payload)
	if len(raw) > 0 && raw[0] == '{' {
		var one T
		if err := decodePayload(cmd, &one); err != nil {
			return err
		}
		*dst = []T{one}
		return nil
	}
	return decodePayload(cmd, dst)
}

// decodeID accepts a JSON number or a numeric string.
func decodeID(cmd Command) (int64, error) {
	if bytes.Equal(bytes.TrimSpace(cmd.Payload), []byte("null")) {
		return 0, &DecodeError{Command: cmd.Name, Err: errNullID}
	}
	var id int64
	if err := decodePayload(cmd, &id); err == nil {
		return id, nil
	}
	var text string
	if err := decodePayload(cmd, &text); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &DecodeError{Command: cmd.Name, Err: err}
	}
	return id, nil
}

// decodePersonnel accepts a batch object ({"personnel": ...} or
// {"personnels": [...]}), a bare declaration, or an array of declarations.
func decodePersonnel(cmd Command) (PersonnelBatch, error) {
	raw := bytes.TrimSpace(cmd.Payload)
	if len(raw) > 0 && raw[0] == '[' {
		var list []*PersonnelDeclaration
		if err := decodePayload(cmd, &list); err != nil {
			return PersonnelBatch{}, err
		}
		return PersonnelBatch{Personnels: list}, nil
	}
	var keys map[string]json.RawMessage
	if err := decodePayload(cmd, &keys); err != nil {
		return PersonnelBatch{}, err
	}
	_, single := keys["personnel"]
	_, many := keys["personnels"]
	if single || many {
		var batch PersonnelBatch
		err := decodePayload(cmd, &batch)
		return batch, err
	}
	var record PersonnelDeclaration
	if err := decodePayload(cmd, &record); err != nil {
		return PersonnelBatch{}, err
	}
	return PersonnelBatch{Personnel: &record}, nil
}

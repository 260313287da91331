package core

import "gtasync/pkg/domain"

type (
	EntityType           = domain.EntityType
	Identified           = domain.Identified
	Structure            = domain.Structure
	Element              = domain.Element
	ElementPatch         = domain.ElementPatch
	Login                = domain.Login
	PersonnelDeclaration = domain.PersonnelDeclaration
	PersonnelPatch       = domain.PersonnelPatch
	Period               = domain.Period
	PeriodPatch          = domain.PeriodPatch
	Pointage             = domain.Pointage
	WeekRecord           = domain.WeekRecord
	ElementAction        = domain.ElementAction
	WeekAction           = domain.WeekAction
	Event                = domain.Event
	Snapshot             = domain.Snapshot
)

const (
	EntityStructure = domain.EntityStructure
	EntityElement   = domain.EntityElement
	EntitySession   = domain.EntitySession
	EntityPersonnel = domain.EntityPersonnel
	EntityPeriod    = domain.EntityPeriod
	EntityPointage  = domain.EntityPointage
	EntityWeek      = domain.EntityWeek
)

const (
	ElementUpdate  = domain.ElementUpdate
	ElementReplace = domain.ElementReplace
	ElementRemove  = domain.ElementRemove
	WeekAddStart   = domain.WeekAddStart
	WeekAddEnd     = domain.WeekAddEnd
	WeekRefresh    = domain.WeekRefresh
)

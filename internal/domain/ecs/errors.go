package ecs

import "errors"

// Sentinel errors returned by the ECS core. Callers should compare with
// errors.Is rather than the string value.
var (
	// ErrUnknownEntity is returned when an operation references an entity
	// id that the EntityStore has never issued or has already recycled.
	ErrUnknownEntity = errors.New("ecs: unknown entity")

	// ErrDeadEntity is returned when an operation targets an entity that
	// has been removed but not yet purged by CommitDeferred.
	ErrDeadEntity = errors.New("ecs: entity is not alive")

	// ErrComponentNotRegistered is returned when a component type is used
	// before RegisterComponent has been called for it.
	ErrComponentNotRegistered = errors.New("ecs: component type not registered")

	// ErrComponentAlreadyRegistered is returned by RegisterComponent when
	// called twice for the same type with incompatible options.
	ErrComponentAlreadyRegistered = errors.New("ecs: component type already registered")

	// ErrMissingComponent is returned by GetComponent/GetMutableComponent
	// when the entity does not carry the requested component.
	ErrMissingComponent = errors.New("ecs: entity does not have component")

	// ErrEmptyQuery is returned by GetQuery when a query has neither
	// positive nor negative terms.
	ErrEmptyQuery = errors.New("ecs: query has no terms")

	// ErrSystemNotFound is returned by RemoveSystem/GetSystem when no
	// system matches the given key.
	ErrSystemNotFound = errors.New("ecs: system not found")

	// ErrDuplicateSystem is returned by RegisterSystem when a system with
	// the same name has already been registered.
	ErrDuplicateSystem = errors.New("ecs: system already registered")
)

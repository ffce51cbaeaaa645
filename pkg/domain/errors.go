package domain

import "errors"

// ErrSlotNotFound is returned when a persistence slot holds no value.
var ErrSlotNotFound = errors.New("slot not found")

// ErrCardNotFound is returned when an operation references an unknown card ID.
var ErrCardNotFound = errors.New("card not found")

// ErrConnectionNotFound is returned when an operation references an unknown connection ID.
var ErrConnectionNotFound = errors.New("connection not found")

// ErrDuplicateHandle is returned when an output port already has an outgoing connection.
var ErrDuplicateHandle = errors.New("output port already connected")

// ErrMinimumPorts is returned when removing the last output port of a card.
var ErrMinimumPorts = errors.New("card must keep at least one output port")

// ErrDuplicateCard is returned when a card ID is already in use.
var ErrDuplicateCard = errors.New("card already exists")

// ErrPortNotFound is returned when an operation references an unknown output port.
var ErrPortNotFound = errors.New("output port not found")

// ErrNoArchive is returned when reading scripts from an editor without a script archive.
var ErrNoArchive = errors.New("script archive not configured")

package network

import "errors"

var (
	// ErrUnknownNode is returned by accessors for unregistered identities.
	ErrUnknownNode = errors.New("unknown node")

	// ErrEmptyNetwork is returned by aggregate queries over zero nodes.
	ErrEmptyNetwork = errors.New("network has no nodes")

	// ErrDuplicateNode is returned when registering an identity twice.
	ErrDuplicateNode = errors.New("node already registered")
)

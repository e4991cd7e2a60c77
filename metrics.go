package awl

import (
	"time"
)

type ResolveHook func(service string, duration time.Duration, err error)

type ActivateHook func(service string, duration time.Duration, err error)

type DeactivateHook func(service string, duration time.Duration, err error)

package registry

import "errors"

// errParameterAlreadyProvided is wrapped into the error RegisterProvider
// returns when a claim collides with an existing provider. Checkable with
// errors.Is inside this package; the IPC backend stub reports every
// RegisterProvider failure, this one included, to the provider process as
// status.ProviderNotOperational.
var errParameterAlreadyProvided = errors.New("parameter already provided by another provider")

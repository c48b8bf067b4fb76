package handlers

import "errors"

// Sentinel errors used inside transactions to carry lifecycle and
// authorization rejections out to the HTTP layer.
var (
	errNotRecipient = errors.New("requester is not the message recipient")
	errStillCooling = errors.New("message is still cooling off")
)

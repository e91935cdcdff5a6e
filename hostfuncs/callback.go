package hostfuncs

import "github.com/reglet-dev/numbridge/domain/entities"

// CallbackRequest is the payload a host sends to a guest's value or
// gradient export.
type CallbackRequest struct {
	C entities.Vector `json:"c"`
	X entities.Vector `json:"x"`
}

// CallbackResponse is what a guest callback export answers with. Values
// holds the callback's return values in order.
type CallbackResponse struct {
	Values []entities.HostValue `json:"values"`
}

package gateway

import (
	"encoding/json"
	"fmt"

	"cafe-pos-backend/internal/models"
)

// Action names one gateway operation. The set is closed.
type Action string

const (
	ActionGetProducts     Action = "getProducts"
	ActionGetOrders       Action = "getOrders"
	ActionGetCategories   Action = "getCategories"
	ActionGetSalesSummary Action = "getSalesSummary"
	ActionVerifySlip      Action = "verifySlip"

	ActionSaveProduct         Action = "saveProduct"
	ActionDeleteProduct       Action = "deleteProduct"
	ActionSaveCategory        Action = "saveCategory"
	ActionDeleteCategory      Action = "deleteCategory"
	ActionCreateOrder         Action = "createOrder"
	ActionUpdateOrderStatus   Action = "updateOrderStatus"
	ActionUpdatePaymentStatus Action = "updatePaymentStatus"
	ActionUpdateOrderPayment  Action = "updateOrderPayment"
)

type actionInfo struct {
	mutates bool
	staff   bool
}

var actions = map[Action]actionInfo{
	ActionGetProducts:     {},
	ActionGetOrders:       {},
	ActionGetCategories:   {},
	ActionGetSalesSummary: {staff: true},
	ActionVerifySlip:      {},

	ActionSaveProduct:         {mutates: true, staff: true},
	ActionDeleteProduct:       {mutates: true, staff: true},
	ActionSaveCategory:        {mutates: true, staff: true},
	ActionDeleteCategory:      {mutates: true, staff: true},
	ActionCreateOrder:         {mutates: true},
	ActionUpdateOrderStatus:   {mutates: true, staff: true},
	ActionUpdatePaymentStatus: {mutates: true, staff: true},
	ActionUpdateOrderPayment:  {mutates: true},
}

// UnknownActionError is returned for an action tag outside the known set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", &UnknownActionError{Action: s}
	}
	return a, nil
}

// Mutates reports whether a runs under the mutation lock.
func (a Action) Mutates() bool { return actions[a].mutates }

// StaffOnly reports whether a always needs a staff caller. createOrder is
// decided per request, see Request.staffOnly.
func (a Action) StaffOnly() bool { return actions[a].staff }

// Request is the body of POST /exec. GET /exec carries the same fields as
// query parameters.
type Request struct {
	Action         string          `json:"action" query:"action"`
	ID             string          `json:"id,omitempty" query:"id"`
	Status         string          `json:"status,omitempty" query:"status"`
	Data           json.RawMessage `json:"data,omitempty" query:"-"`
	SlipImage      *models.Asset   `json:"slipImage,omitempty" query:"-"`
	ExpectedAmount float64         `json:"expectedAmount,omitempty" query:"expectedAmount"`
	Period         string          `json:"period,omitempty" query:"period"`
}

// Caller describes who is asking.
type Caller struct {
	Staff bool
}

// Envelope is the status reply of a write and of every failure.
type Envelope struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	ID      string `json:"id,omitempty"`
	SlipURL string `json:"slipUrl,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

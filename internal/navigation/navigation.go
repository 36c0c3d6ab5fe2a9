// Package navigation models the shop as an explicit page graph. Pages are
// states, user actions are labelled edges, and any action not in the table
// is illegal from that state.
package navigation

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrIllegalTransition is returned for an action the table does not allow
// from the given state.
var ErrIllegalTransition = errors.New("illegal page transition")

// State identifies which page a session is on.
type State int

const (
	LoggedOut State = iota
	Inventory
	Cart
	CheckoutStepOne
	CheckoutStepTwo
	CheckoutComplete
)

var stateNames = [...]string{
	LoggedOut:        "LoggedOut",
	Inventory:        "Inventory",
	Cart:             "Cart",
	CheckoutStepOne:  "CheckoutStepOne",
	CheckoutStepTwo:  "CheckoutStepTwo",
	CheckoutComplete: "CheckoutComplete",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool { return s >= LoggedOut && s <= CheckoutComplete }

// States returns every state in declaration order.
func States() []State {
	return []State{LoggedOut, Inventory, Cart, CheckoutStepOne, CheckoutStepTwo, CheckoutComplete}
}

// Action is a user action that may move the session to another page.
type Action string

const (
	Login            Action = "login"
	Logout           Action = "logout"
	GoToCart         Action = "go_to_cart"
	Checkout         Action = "checkout"
	ContinueShopping Action = "continue_shopping"
	Continue         Action = "continue"
	CancelCheckout   Action = "cancel_checkout"
	Finish           Action = "finish"
	CancelOrder      Action = "cancel_order"
	BackHome         Action = "back_home"
)

var table = map[State]map[Action]State{
	LoggedOut: {
		Login: Inventory,
	},
	Inventory: {
		GoToCart: Cart,
		Logout:   LoggedOut,
	},
	Cart: {
		Checkout:         CheckoutStepOne,
		ContinueShopping: Inventory,
	},
	CheckoutStepOne: {
		Continue:       CheckoutStepTwo,
		CancelCheckout: Cart,
	},
	CheckoutStepTwo: {
		Finish:      CheckoutComplete,
		CancelOrder: Inventory,
	},
	CheckoutComplete: {
		BackHome: Inventory,
	},
}

// Next returns the state reached by taking action from from.
func Next(from State, action Action) (State, error) {
	to, ok := table[from][action]
	if !ok {
		return from, fmt.Errorf("%w: %q from %s", ErrIllegalTransition, action, from)
	}
	return to, nil
}

// Actions lists the actions allowed from a state, sorted.
func Actions(from State) []Action {
	out := make([]Action, 0, len(table[from]))
	for a := range table[from] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edge is one row of the transition table.
type Edge struct {
	From   State
	Action Action
	To     State
}

// Edges returns the whole table ordered by source state, then action.
func Edges() []Edge {
	var out []Edge
	for _, from := range States() {
		for _, a := range Actions(from) {
			out = append(out, Edge{From: from, Action: a, To: table[from][a]})
		}
	}
	return out
}

// Walk applies actions in order and returns the final state, failing on the
// first illegal step.
func Walk(from State, actions ...Action) (State, error) {
	cur := from
	for i, a := range actions {
		next, err := Next(cur, a)
		if err != nil {
			return cur, fmt.Errorf("step %d: %w", i+1, err)
		}
		cur = next
	}
	return cur, nil
}

// PathTo returns a shortest action sequence from one state to another, or
// false if to is unreachable.
func PathTo(from, to State) ([]Action, bool) {
	if from == to {
		return nil, true
	}
	type hop struct {
		prev   State
		action Action
	}
	seen := map[State]hop{from: {}}
	queue := []State{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, a := range Actions(cur) {
			next := table[cur][a]
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = hop{prev: cur, action: a}
			if next == to {
				var path []Action
				for s := to; s != from; s = seen[s].prev {
					path = append([]Action{seen[s].action}, path...)
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// Step is one recorded move of a session. Rejected steps stay on From.
type Step struct {
	From     State
	Action   Action
	To       State
	Rejected bool
	Message  string
	At       time.Time
}

func (s Step) String() string {
	if s.Rejected {
		return fmt.Sprintf("%s --%s--x (%s)", s.From, s.Action, s.Message)
	}
	return fmt.Sprintf("%s --%s--> %s", s.From, s.Action, s.To)
}

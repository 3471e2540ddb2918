package status

// Kind is the coarse class a status falls into.
type Kind string

const (
	KindNonTerminal Kind = "non-terminal"
	KindSuccess     Kind = "success"
	KindFailure     Kind = "failure"
)

type Classification struct {
	Terminal bool
	Success  bool
}

func (c Classification) Kind() Kind {
	switch {
	case c.Terminal && c.Success:
		return KindSuccess
	case c.Terminal:
		return KindFailure
	default:
		return KindNonTerminal
	}
}

// Classify decides whether s ends the reconciliation loop. CONFIRMED is the
// only success terminal; DECLINED, FAILED and CANCELLED are failure
// terminals. OVERDUE and REFUNDED keep polling.
func Classify(s Status) Classification {
	switch s {
	case Confirmed:
		return Classification{Terminal: true, Success: true}
	case Declined, Failed, Cancelled:
		return Classification{Terminal: true}
	default:
		return Classification{}
	}
}

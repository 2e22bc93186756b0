package pagination

// FooterKind is what the end of the list should show.
type FooterKind string

const (
	FooterNone    FooterKind = "none"
	FooterSpinner FooterKind = "spinner"
	FooterAlert   FooterKind = "alert"
)

// Severity distinguishes an informational alert from an error.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// FooterView describes the list footer for a snapshot.
type FooterView struct {
	Kind       FooterKind
	Text       string
	Severity   Severity
	ActionText string
}

// Footer derives the list footer from a snapshot. Aborted sessions get an
// informational alert offering to continue; errors offer a retry.
func Footer(s Snapshot) FooterView {
	switch s.Status {
	case StatusAborted:
		return FooterView{
			Kind:       FooterAlert,
			Text:       s.ErrorMessage,
			Severity:   SeverityInfo,
			ActionText: "Continue to fetch",
		}
	case StatusError:
		return FooterView{
			Kind:       FooterAlert,
			Text:       s.ErrorMessage,
			Severity:   SeverityError,
			ActionText: "Retry",
		}
	}

	if s.EndOfList() {
		return FooterView{Kind: FooterNone}
	}

	text := "Loading more breeds"
	if len(s.Items) == 0 {
		text = "Loading breeds"
	}
	if s.Status == StatusLoading && s.RetriesInFlight > 0 {
		text += ", but may take longer than expected"
	}
	return FooterView{Kind: FooterSpinner, Text: text}
}

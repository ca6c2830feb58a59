package transcribe

// FailureKind classifies why a submission did not produce a transcript.
type FailureKind string

const (
	// FailureTransport covers network and connection-level errors.
	FailureTransport FailureKind = "transport"
	// FailureServer covers non-2xx responses from the backend.
	FailureServer FailureKind = "server"
	// FailureMalformed covers 2xx responses missing the expected fields.
	FailureMalformed FailureKind = "malformed"
)

// GenericFailureMessage is shown when the backend gave no usable detail.
const GenericFailureMessage = "transcription failed; please try again"

// Failure is the single user-visible error for a finished submission.
// Message is either the server-provided detail or GenericFailureMessage.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// NewFailure builds a Failure, falling back to the generic message when
// detail is blank.
func NewFailure(kind FailureKind, detail string) *Failure {
	if detail == "" {
		detail = GenericFailureMessage
	}
	return &Failure{Kind: kind, Message: detail}
}

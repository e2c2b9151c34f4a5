package domain

import "errors"

// Fixed assistant texts synthesized by the proxy itself.
const (
	RefusalText          = "I cannot respond due to content rules."
	NoResponseText       = "No response from AI model"
	TransportErrorPrefix = "Error communicating with AI service: "
)

// ReplyFor maps a dispatch outcome to the text the user receives. The
// user always gets an answer: transport failures carry their detail,
// empty or malformed upstream responses get a generic line.
func ReplyFor(text string, err error) string {
	if err == nil {
		return text
	}

	var de *DispatchError
	if errors.As(err, &de) && de.Kind == DispatchTransport {
		detail := "unknown error"
		if de.Err != nil {
			detail = de.Err.Error()
		}
		return TransportErrorPrefix + detail
	}

	return NoResponseText
}

package blueprint

import "errors"

var (
	// Parsing.
	ErrParsingCancelled  = errors.New("blueprint parsing cancelled")
	ErrFailedToParseYAML = errors.New("failed to parse YAML blueprint")
	ErrFailedToParseJSON = errors.New("failed to parse JSON blueprint")
	ErrUnsupportedFormat = errors.New("unsupported blueprint format")

	// Loading.
	ErrLoadingCancelled = errors.New("loading blueprint cancelled")
	ErrFailedToReadFile = errors.New("failed to read blueprint file")

	// Compilation.
	ErrNilDocument      = errors.New("document cannot be nil")
	ErrEmptyTransitions = errors.New("event declares no transitions")
	ErrUnknownGuard     = errors.New("guard is not registered")
	ErrUnknownUpdate    = errors.New("update is not registered")
	ErrUnknownAction    = errors.New("action is not registered")

	// Registration.
	ErrDuplicateName       = errors.New("name already registered")
	ErrInvalidRegistration = errors.New("registration requires a non-empty name and a non-nil function")
)

package domain

import "errors"

// Domain errors for repository state and configuration.
var (
	// ErrNotARepository indicates the working directory is not inside
	// a Git repository, so no release version can be computed.
	ErrNotARepository = errors.New("not a git repository; cannot compute a release version")

	// ErrDetachedHead indicates HEAD is not on a branch. Releases are
	// only made from a branch because the branch is pushed after the tag.
	ErrDetachedHead = errors.New("HEAD is detached; releases must be made from a branch")

	// ErrNoConfig indicates the release configuration file is missing.
	ErrNoConfig = errors.New("release configuration not found")

	// ErrRegistryCredentials indicates no registry credentials could
	// be resolved from Vault or the environment.
	ErrRegistryCredentials = errors.New(
		"registry credentials required: set RELGATE_REGISTRY_ACCESS_KEY and RELGATE_REGISTRY_SECRET_KEY, " +
			"or RELGATE_VAULT_CREDS_PATH (with VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID)",
	)
)

// BlockedError is a terminal precondition or sync failure. It carries
// the fixed exit code the process must terminate with, a remediation
// message for the operator, and optionally the raw command output that
// triggered the failure (e.g. a dirty status listing).
type BlockedError struct {
	Code    int
	Message string
	Detail  string
}

func (e *BlockedError) Error() string {
	return e.Message
}

// Blocked builds a BlockedError without detail output.
func Blocked(code int, message string) *BlockedError {
	return &BlockedError{Code: code, Message: message}
}

// ExitCodeFor maps an error to the process exit code it mandates.
// BlockedError carries its own code; anything else is an environment
// failure.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked.Code
	}
	return ExitEnvironment
}

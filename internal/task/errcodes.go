package task

import "strings"

// Installer error codes, aligned with linglong's utils::error::ErrorCode so
// daemon output matches what ll-cli reports.
const (
	CodeFailed    = -1
	CodeSuccess   = 0
	CodeCancelled = 1
	CodeUnknown   = 1000

	CodeAppNotFoundFromRemote = 1001
	CodeAppNotFoundFromLocal  = 1002

	CodeInstallFailed                = 2001
	CodeInstallNotFoundFromRemote    = 2002
	CodeInstallAlreadyInstalled      = 2003
	CodeInstallNeedDowngrade         = 2004
	CodeInstallModuleNoVersion       = 2005
	CodeInstallModuleRequireAppFirst = 2006
	CodeInstallModuleAlreadyExists   = 2007
	CodeInstallArchNotMatch          = 2008
	CodeInstallModuleNotFound        = 2009
	CodeInstallErofsNotFound         = 2010
	CodeInstallUnsupportedFormat     = 2011

	CodeUpgradeFailed        = 2201
	CodeUpgradeLocalNotFound = 2202

	CodeNetworkError = 3001

	CodeInvalidFuzzyReference = 4001
	CodeUnknownArchitecture   = 4002

	// CodeProgressTimeout is orchestrator-local: no progress event arrived
	// within the configured window.
	CodeProgressTimeout = -2
)

var codeMessages = map[int]string{
	CodeFailed:    "operation failed",
	CodeSuccess:   "success",
	CodeCancelled: "install cancelled",
	CodeUnknown:   "unknown error",

	CodeAppNotFoundFromRemote: "app not found in remote repository",
	CodeAppNotFoundFromLocal:  "app not found locally",

	CodeInstallFailed:                "install failed",
	CodeInstallNotFoundFromRemote:    "remote has no such app",
	CodeInstallAlreadyInstalled:      "this version is already installed",
	CodeInstallNeedDowngrade:         "a newer version is installed; downgrade requires force",
	CodeInstallModuleNoVersion:       "module installs cannot pin a version",
	CodeInstallModuleRequireAppFirst: "install the app before its modules",
	CodeInstallModuleAlreadyExists:   "module already exists",
	CodeInstallArchNotMatch:          "architecture mismatch",
	CodeInstallModuleNotFound:        "remote has no such module",
	CodeInstallErofsNotFound:         "erofs extraction command missing",
	CodeInstallUnsupportedFormat:     "unsupported file format",

	CodeUpgradeFailed:        "upgrade failed",
	CodeUpgradeLocalNotFound: "no upgradable app installed",

	CodeNetworkError: "network error",

	CodeInvalidFuzzyReference: "invalid package reference",
	CodeUnknownArchitecture:   "unknown architecture",

	CodeProgressTimeout: "install progress timed out",
}

// CodeMessage maps an installer error code to a readable message, falling
// back to the supplied message when the code is unmapped.
func CodeMessage(code *int, fallback string) string {
	if code == nil {
		if fallback != "" {
			return fallback
		}
		return codeMessages[CodeUnknown]
	}
	if msg, ok := codeMessages[*code]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return codeMessages[CodeUnknown]
}

// IsCancelledCode reports whether code represents a user-initiated cancel.
// Cancelled installs surface informationally rather than as failures.
func IsCancelledCode(code *int) bool {
	return code != nil && *code == CodeCancelled
}

// IsRetryableCode reports whether a retry without changes could succeed.
func IsRetryableCode(code *int) bool {
	if code == nil {
		return false
	}
	switch *code {
	case CodeNetworkError, CodeProgressTimeout, CodeUnknown:
		return true
	}
	return false
}

// NeedsUserAction reports whether the failure requires a user decision
// (force install, stop the running app, pick another arch) before retrying.
func NeedsUserAction(code *int) bool {
	if code == nil {
		return false
	}
	switch *code {
	case CodeInstallNeedDowngrade, CodeInstallAlreadyInstalled, CodeInstallArchNotMatch, CodeNetworkError:
		return true
	}
	return false
}

// ForceRequired detects the installer hint that the version is already
// installed and a forced reinstall is needed.
func ForceRequired(output string) bool {
	if output == "" {
		return false
	}
	normalized := strings.Join(strings.Fields(output), " ")
	return strings.Contains(normalized, "ll-cli install") && strings.Contains(normalized, "--force")
}

// ClassifyOutput derives an error code from raw installer output when the
// process exits without reporting a structured code.
func ClassifyOutput(output string) int {
	lower := strings.ToLower(output)
	switch {
	case ForceRequired(output):
		return CodeInstallAlreadyInstalled
	case containsAny(lower, "network", "connection", "timeout", "fetch"):
		return CodeNetworkError
	case containsAny(lower, "not found", "no such", "does not exist"):
		return CodeInstallNotFoundFromRemote
	case containsAny(lower, "permission", "access denied", "privilege"):
		return CodeInstallFailed
	case containsAny(lower, "disk", "no space", "storage"):
		return CodeInstallFailed
	default:
		return CodeUnknown
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

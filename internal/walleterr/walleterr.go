// Package walleterr defines the error taxonomy shared by every wallet and
// system operation. Errors are sentinel values wrapped with context via
// fmt.Errorf("...: %w", ...), the same idiom payout-engine uses around
// ethclient and redis calls.
package walleterr

import "errors"

var (
	ErrInvalidSubaccount        = errors.New("invalid subaccount")
	ErrInvalidAccountIdentifier = errors.New("invalid account identifier")
	ErrWalletNotInitialized     = errors.New("wallet not initialized")
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountInUse             = errors.New("account in use")
	ErrUserNotFound             = errors.New("user not found")
	ErrNotAuthorized            = errors.New("not authorized")
	ErrRequestNotFound          = errors.New("request not found")
	ErrAlreadyProcessed         = errors.New("request already processed")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidNetwork           = errors.New("invalid network")
	ErrPublicKey                = errors.New("public key error")
	ErrSign                     = errors.New("sign error")
	ErrExecution                = errors.New("execution error")
	ErrWasmNotLoaded            = errors.New("wasm not loaded")
	ErrWasmHashMismatch         = errors.New("wasm hash mismatch")
	ErrInstallCode              = errors.New("install code error")
	ErrRateLimitExceeded        = errors.New("rate limit exceeded")
	ErrReleaseAlreadyExists     = errors.New("release already exists")
	ErrReleaseNotFound          = errors.New("release not found")
	ErrReleaseDeprecated        = errors.New("release deprecated")
)

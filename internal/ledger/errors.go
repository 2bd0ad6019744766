package ledger

import "errors"

var (
	// ErrJobNotFound is returned when a job does not exist or is already paid.
	// An already-paid job is deliberately indistinguishable from a missing one:
	// the "job is unpaid" read is the sole idempotence guard for PayJob.
	ErrJobNotFound = errors.New("job not found or already paid")

	// ErrNotContractClient is returned when the caller is not the client on
	// the job's contract.
	ErrNotContractClient = errors.New("caller is not the client on this contract")

	// ErrInsufficientFunds is returned when the client balance does not cover
	// the job price.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrProfileNotFound is returned when the target profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrContractNotFound is returned when a contract does not exist or the
	// caller is not one of its parties.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDepositForbidden is returned on third-party deposit attempts.
	ErrDepositForbidden = errors.New("deposits are allowed only into the caller's own balance")

	// ErrDepositLimitExceeded is returned when a deposit exceeds 25% of the
	// caller's outstanding unpaid job prices.
	ErrDepositLimitExceeded = errors.New("deposit exceeds 25% of unpaid job total")

	// ErrInvalidAmount is returned for zero or negative deposit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidRange is returned when a reporting window is malformed.
	ErrInvalidRange = errors.New("start date must not be after end date")

	// ErrStoreUnavailable is returned when the store cannot complete the
	// operation for reasons unrelated to its inputs. The caller may retry
	// the whole operation.
	ErrStoreUnavailable = errors.New("store unavailable")
)

package errors

type ExitCode int

const (
	// Generic failure: bad flags, config or an unreachable server.
	GenericFailureExitCode ExitCode = 1

	// Returned by the example sequence when its first steps fail.
	HealthCheckFailureExitCode ExitCode = 1
	CreateTestFailureExitCode  ExitCode = 1

	// Returned by commands waiting on a test.
	TestFailedExitCode  ExitCode = 2
	WaitTimeoutExitCode ExitCode = 3
)

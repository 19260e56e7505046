package subprocess

// FPFClassifier classifies the fpf-cli adapter's exit codes per spec.md
// §4.2.1: codes 1-4 signal a missing-grounding or missing-reasoning
// condition the adapter itself flags as retryable; 5+ and spawn errors are
// treated as non-transient (bad config, auth, or a parse failure in the
// final output).
func FPFClassifier(exitCode int, _, _ []byte, spawnErr error) ExitClass {
	if spawnErr != nil {
		return ClassNonTransient
	}
	switch {
	case exitCode == 0:
		return ClassSuccess
	case exitCode >= 1 && exitCode <= 4:
		return ClassTransient
	default:
		return ClassNonTransient
	}
}

// GPTRClassifier classifies the gpt-researcher adapter's exit codes: 0 is
// success, 2 is the adapter's own rate-limit signal (retry), anything else
// is treated as non-transient.
func GPTRClassifier(exitCode int, _, _ []byte, spawnErr error) ExitClass {
	if spawnErr != nil {
		return ClassNonTransient
	}
	switch exitCode {
	case 0:
		return ClassSuccess
	case 2:
		return ClassTransient
	default:
		return ClassNonTransient
	}
}

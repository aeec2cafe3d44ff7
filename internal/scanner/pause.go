package scanner

// EnablePause arms standing pause mode: from now on, any time Getline
// would otherwise shift the buffer or reset it to the empty state —
// either of which can invalidate byte ranges the caller has not finished
// reading — it instead returns a Paused result and performs no mutation.
// The mode stays armed across any number of Paused/Resume cycles until
// DisablePause is called.
func (s *Scanner) EnablePause() { s.pauseOnInval = true }

// DisablePause turns off standing pause mode set by EnablePause. Getline
// is free to shift or reset the buffer again immediately.
func (s *Scanner) DisablePause() { s.pauseOnInval = false }

// Resume arms a one-shot latch that releases a single previously-issued
// Paused result, allowing the mutation it deferred to proceed on the next
// Getline call. Pause mode itself remains armed: once that one
// invalidating action has run, a subsequent invalidation again returns
// Paused until Resume is called again. It is a programming error to call
// Resume without a pending Paused result outstanding; doing so has no
// effect beyond arming the latch for the next invalidation.
func (s *Scanner) Resume() { s.terminateCurrentPause = true }

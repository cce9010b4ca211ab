// Package sessionlock guards the state directory against concurrent
// adforge processes.
//
// The state directory holds a single session snapshot and log file. Two
// processes attached to the same snapshot would overwrite each other's
// saves, so commands that open a session acquire the lock first and hold
// it until they exit.
//
// The lock is a JSON file recording the owning process ID and start time.
// Acquisition is atomic via O_EXCL. A lock left behind by a crashed
// process is detected by probing the recorded PID and reclaimed
// automatically.
//
// # Basic Usage
//
//	guard, err := sessionlock.Acquire(stateDir)
//	if errors.Is(err, sessionlock.ErrLocked) {
//		// another adforge process owns the state directory
//	}
//	defer guard.Release()
package sessionlock

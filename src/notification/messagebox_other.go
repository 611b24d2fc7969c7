//go:build !windows

package notification

// showMessageBox has no native modal outside Windows; callers fall back to a
// desktop notification.
func showMessageBox(title, message string) bool { return false }

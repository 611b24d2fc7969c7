package notification

import (
	"log"
	"sync"

	"fyne.io/fyne/v2"
)

// maxLen bounds the notification body, in runes.
const maxLen = 200

// Sender delivers desktop notifications; fyne.App satisfies it.
type Sender interface {
	SendNotification(*fyne.Notification)
}

var (
	mu     sync.Mutex
	sender Sender
)

// Init routes notifications through s. Before Init messages are only logged.
func Init(s Sender) {
	mu.Lock()
	defer mu.Unlock()
	sender = s
}

// Show displays a short desktop notification.
func Show(title, message string) {
	message = truncate(message)
	log.Printf("Notification: %s: %s", title, message)
	mu.Lock()
	s := sender
	mu.Unlock()
	if s == nil {
		return
	}
	s.SendNotification(fyne.NewNotification(title, message))
}

// ShowBlockingError reports an error the user must see before the app can
// continue, such as a failed startup check.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	if showMessageBox(title, message) {
		return
	}
	Show(title, message)
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen]) + "..."
}

package telegram

import "github.com/Strob0t/GitRelay/internal/port/notifier"

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		return NewNotifier(config["bot_token"], config["api_server"]), nil
	})
}

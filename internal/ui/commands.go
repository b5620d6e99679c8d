package ui

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/logging"
	"github.com/jarv/justread/internal/tasks"
)

const requestTimeout = 30 * time.Second

func loadHome(service home.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sections, err := service.GetHomeItems(ctx)
		if err != nil {
			logging.Error("loadHome failed", "error", err)
			return ErrorMsg{Err: err}
		}
		return HomeLoadedMsg{Sections: sections}
	}
}

func loadHiddenSection(service home.Service, section, generation int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := service.GetHiddenHomeSection(ctx)
		if err != nil {
			logging.Error("loadHiddenSection failed", "error", err)
		}
		return HiddenLoadedMsg{Section: section, Generation: generation, Result: result, Err: err}
	}
}

func loadSubscription(service home.Service, sourceID string, generation int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sub, err := service.GetSubscription(ctx, sourceID)
		if err != nil {
			logging.Warn("loadSubscription failed", "sourceID", sourceID, "error", err)
		}
		return SubscriptionLoadedMsg{Generation: generation, Subscription: sub, Err: err}
	}
}

func sendFeedback(service home.Service, input home.FeedbackInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ok, err := service.SendHomeFeedback(ctx, input)
		if err != nil {
			logging.Error("sendFeedback failed", "error", err)
		}
		return FeedbackSentMsg{Input: input, OK: ok, Err: err}
	}
}

func readItem(service home.Service, target string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		article, err := service.ReadItem(ctx, target)
		if err != nil {
			logging.Warn("readItem failed", "target", target, "error", err)
		}
		return ArticleLoadedMsg{Target: target, Article: article, Err: err}
	}
}

// checkBrowserURL accepts absolute http(s) URLs only.
func checkBrowserURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

// OpenBrowser opens an http(s) URL with the platform opener.
func OpenBrowser(rawURL string) error {
	if err := checkBrowserURL(rawURL); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func openLink(open func(string) error, rawURL string) tea.Cmd {
	return func() tea.Msg {
		err := open(rawURL)
		if err != nil {
			logging.Error("Error opening link", "url", rawURL, "error", err)
		}
		return LinkOpenedMsg{URL: rawURL, Err: err}
	}
}

func expireToast(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

func queueRefresh(refresh func() error) tea.Cmd {
	return func() tea.Msg {
		return RefreshQueuedMsg{Err: refresh()}
	}
}

func listenForTaskEvents(taskManager tasks.Manager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-taskManager.Subscribe()
		if !ok {
			return nil
		}
		return TaskEventMsg{Event: event}
	}
}

func quitApp(taskManager tasks.Manager) tea.Cmd {
	return func() tea.Msg {
		if taskManager != nil {
			if err := taskManager.Stop(); err != nil {
				logging.Error("Failed to stop task manager on quit", "error", err)
			}
		}
		return tea.Quit()
	}
}

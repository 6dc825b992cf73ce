package auth

import (
	"github.com/pkg/browser"
)

// Navigator sends the user to a URL, typically by opening a browser.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error {
	return f(url)
}

// BrowserNavigator opens URLs in the user's default browser.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(url string) error {
	return browser.OpenURL(url)
}

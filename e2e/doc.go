// Package e2e runs every journey against the live application. The tests
// only build with the e2e tag:
//
//	go test -tags e2e ./e2e/...
//
// Configuration comes from SAUCE_* environment variables on top of the
// defaults, so SAUCE_BROWSER_NAME=firefox selects Playwright.
package e2e

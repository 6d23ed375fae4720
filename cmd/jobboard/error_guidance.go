package main

import (
	"context"
	"errors"
	"net"

	"jobboard/internal/api"
)

// guidanceRule adds hints when match accepts the error. Rules run in order;
// a matching final rule stops the scan.
type guidanceRule struct {
	match func(err error) bool
	hints []string
	final bool
}

func apiCode(codes ...string) func(error) bool {
	return func(err error) bool {
		apiErr, ok := api.AsAPIError(err)
		if !ok {
			return false
		}
		for _, code := range codes {
			if apiErr.Code == code {
				return true
			}
		}
		return false
	}
}

var guidanceRules = []guidanceRule{
	{
		match: apiCode("unauthorized", "forbidden"),
		hints: []string{"hint: verify JOBBOARD_ADMIN_EMAIL and JOBBOARD_ADMIN_PASSWORD, or create an admin with: jobboard admin user add <email> --password-stdin"},
	},
	{
		match: apiCode("resource_exhausted"),
		hints: []string{"hint: too many failed logins; wait before retrying."},
	},
	{
		match: apiCode("unavailable"),
		hints: []string{"hint: the server is missing a backend; check storage and database configuration."},
	},
	{
		match: func(err error) bool {
			apiErr, ok := api.AsAPIError(err)
			return ok && !apiErr.Enveloped()
		},
		hints: []string{"hint: verify JOBBOARD_API_URL points to a jobboard server."},
	},
	{
		match: func(err error) bool {
			apiErr, ok := api.AsAPIError(err)
			return ok && apiErr.Status >= 500
		},
		hints: []string{"hint: server returned an internal error; check server logs for details."},
		final: true,
	},
	{
		match: func(err error) bool { _, ok := api.AsAPIError(err); return ok },
		final: true,
	},
	{
		match: func(err error) bool { return errors.Is(err, context.DeadlineExceeded) },
		hints: []string{"hint: request timed out; check server health or increase JOBBOARD_HTTP_TIMEOUT."},
		final: true,
	},
	{
		match: func(err error) bool {
			var netErr net.Error
			return errors.As(err, &netErr)
		},
		hints: []string{
			"hint: ensure a jobboard server is running at JOBBOARD_API_URL.",
			"hint: start local server manually with: jobboard srv",
		},
		final: true,
	},
}

// formatCLIError returns the error line followed by any matching hints.
func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}
	lines := []string{err.Error()}
	for _, rule := range guidanceRules {
		if !rule.match(err) {
			continue
		}
		lines = append(lines, rule.hints...)
		if rule.final {
			break
		}
	}
	return lines
}

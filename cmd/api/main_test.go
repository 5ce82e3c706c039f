package main

import "testing"

func TestMetricPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/v1/routes/plan", "/v1/routes/plan"},
		{"/v1/incidents", "/v1/incidents"},
		{"/v1/incidents/", "/v1/incidents/"},
		{"/v1/incidents/6b7f2c1a-0d3e-4f5a-9b8c-1d2e3f4a5b6c", "/v1/incidents/{id}"},
		{"/healthz", "/healthz"},
	}
	for _, c := range cases {
		if got := metricPath(c.in); got != c.want {
			t.Errorf("metricPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

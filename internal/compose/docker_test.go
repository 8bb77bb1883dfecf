package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocker struct {
	containers []container.Summary
	err        error
	opts       container.ListOptions
}

func (f *fakeDocker) ContainerList(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
	f.opts = opts
	return f.containers, f.err
}

func (f *fakeDocker) Close() error { return nil }

func TestListContainers(t *testing.T) {
	fd := &fakeDocker{containers: []container.Summary{
		{
			Names:  []string{"/postiz-redis"},
			Image:  "redis:7",
			State:  "running",
			Status: "Up 2 minutes",
			Labels: map[string]string{composeProjectLabel: "postiz", composeServiceLabel: "redis"},
		},
		{
			Names:  []string{"/postiz-app"},
			Image:  "ghcr.io/gitroomhq/postiz-app:latest",
			State:  "exited",
			Labels: map[string]string{composeProjectLabel: "postiz", composeServiceLabel: "app"},
		},
		{
			Names:  []string{"/other"},
			Labels: map[string]string{composeProjectLabel: "other"},
		},
	}}

	got, err := ListContainers(context.Background(), fd, "postiz")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "app", got[0].Service)
	assert.Equal(t, "postiz-app", got[0].Name)
	assert.Equal(t, "exited", got[0].State)
	assert.Equal(t, "redis", got[1].Service)
	assert.Equal(t, "Up 2 minutes", got[1].Status)

	assert.True(t, fd.opts.All)
	assert.True(t, fd.opts.Filters.ExactMatch("label", composeProjectLabel+"=postiz"))
}

func TestListContainers_Error(t *testing.T) {
	_, err := ListContainers(context.Background(), &fakeDocker{err: errors.New("daemon down")}, "postiz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon down")
}

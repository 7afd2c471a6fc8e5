package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineProcessesInOrder(t *testing.T) {
	api := &fakeAPI{}
	exec := NewExecutor(&fakeMessenger{}, imagestore.New(t.TempDir()), readyState())
	router := NewRouter(api, exec, monitoredGroup,
		[]string{"vendo"}, []string{"1", "2", "3"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := NewPipeline(10, router)
	pipeline.Start(ctx)

	for _, text := range []string{"vendo uno", "vendo dos", "vendo tres"} {
		pipeline.Enqueue(groupMessage(text, moderation.TypeText))
	}

	require.Eventually(t, func() bool { return api.callCount() == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"vendo uno", "vendo dos", "vendo tres"}, api.ingestedContents())

	cancel()
	pipeline.Wait()
}

func TestPipelineDropsWhenFull(t *testing.T) {
	router := NewRouter(&fakeAPI{}, NewExecutor(&fakeMessenger{}, imagestore.New(t.TempDir()), readyState()),
		monitoredGroup, nil, nil)

	// Not started: the queue only drains when the consumer runs.
	pipeline := NewPipeline(1, router)
	pipeline.Enqueue(directMessage("uno"))
	pipeline.Enqueue(directMessage("dos"))

	assert.Len(t, pipeline.queue, 1)
	assert.Equal(t, uint64(1), pipeline.Dropped())
}

package kafka

import (
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/logger"
	"BuzzDaddy/internal/service"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu       sync.Mutex
	tasks    []*service.AutopilotTask
	traceIDs []string
	result   *service.TaskResult
}

func (r *recordingRunner) RunTask(ctx context.Context, task *service.AutopilotTask) *service.TaskResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	r.traceIDs = append(r.traceIDs, logger.TraceID(ctx))
	if r.result != nil {
		return r.result
	}
	return &service.TaskResult{Type: consts.ResultTypeSuccess, Message: "ok"}
}

func mockConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	return c
}

func TestDispatcherSendsTask(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mockConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		task, err := DecodeTask(val)
		if err != nil {
			return err
		}
		if task.CampaignID != 7 || task.Stage != consts.StagePost {
			return errors.New("unexpected task payload")
		}
		return nil
	})
	dispatcher := NewDispatcherWithProducer(producer, "buzz-autopilot-tasks")

	result, err := dispatcher.Dispatch(context.Background(), &service.AutopilotTask{CampaignID: 7, Stage: consts.StagePost, TraceID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, consts.ResultTypeSuccess, result.Type)
	assert.Equal(t, "post queued for campaign 7", result.Message)
	queued, ok := result.Data.(*QueuedTask)
	require.True(t, ok)
	assert.Equal(t, "buzz-autopilot-tasks", queued.Topic)
	assert.EqualValues(t, 7, queued.Task.CampaignID)

	require.NoError(t, dispatcher.Close())
}

func TestDispatcherSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mockConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	dispatcher := NewDispatcherWithProducer(producer, "buzz-autopilot-tasks")

	_, err := dispatcher.Dispatch(context.Background(), &service.AutopilotTask{CampaignID: 3, Stage: consts.StageFetch})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, dispatcher.Close())
}

func TestDecodeTask(t *testing.T) {
	task, err := DecodeTask([]byte(`{"campaign_id":5,"stage":"fetch","trace_id":"abc"}`))
	require.NoError(t, err)
	assert.EqualValues(t, 5, task.CampaignID)
	assert.Equal(t, "abc", task.TraceID)

	_, err = DecodeTask([]byte(`not json`))
	assert.Error(t, err)
	_, err = DecodeTask([]byte(`{"campaign_id":0,"stage":"fetch"}`))
	assert.Error(t, err)
	_, err = DecodeTask([]byte(`{"campaign_id":5,"stage":"publish"}`))
	assert.Error(t, err)
}

func TestTaskHandlerLogic(t *testing.T) {
	runner := &recordingRunner{}
	handler := NewTaskHandler(runner)

	payload, err := json.Marshal(&service.AutopilotTask{CampaignID: 9, Stage: consts.StageFetch, TraceID: "cron-1"})
	require.NoError(t, err)

	require.NoError(t, handler.logic(context.Background(), &sarama.ConsumerMessage{Value: payload}))
	require.NoError(t, handler.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{}`)}))

	require.Len(t, runner.tasks, 1)
	assert.EqualValues(t, 9, runner.tasks[0].CampaignID)
	assert.Equal(t, "cron-1", runner.traceIDs[0])
}

func TestTaskHandlerLogicRetriesTransientFailures(t *testing.T) {
	payload, err := json.Marshal(&service.AutopilotTask{CampaignID: 9, Stage: consts.StagePost})
	require.NoError(t, err)
	msg := &sarama.ConsumerMessage{Value: payload}

	transient := &recordingRunner{result: &service.TaskResult{
		Type:    consts.ResultTypeError,
		Message: service.UnExpectedError.Error(),
		Err:     service.UnExpectedError,
	}}
	err = NewTaskHandler(transient).logic(context.Background(), msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.UnExpectedError)

	for _, permanent := range []error{service.ErrAutopilotBusy, service.ErrCampaignNotFound, service.ErrStageInvalid} {
		runner := &recordingRunner{result: &service.TaskResult{Type: consts.ResultTypeError, Message: permanent.Error(), Err: permanent}}
		assert.NoError(t, NewTaskHandler(runner).logic(context.Background(), msg), permanent.Error())
	}
}

func TestRunWithRetryRetriesHandlerErrors(t *testing.T) {
	payload, err := json.Marshal(&service.AutopilotTask{CampaignID: 9, Stage: consts.StageFetch})
	require.NoError(t, err)

	runner := &recordingRunner{result: &service.TaskResult{Type: consts.ResultTypeError, Err: service.UnExpectedError}}
	runWithRetry(context.Background(), &sarama.ConsumerMessage{Value: payload}, NewTaskHandler(runner).logic)
	assert.Len(t, runner.tasks, maxAttempts)
}

func TestRunWithRetryStopsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runWithRetry(ctx, &sarama.ConsumerMessage{}, func(context.Context, *sarama.ConsumerMessage) error {
		attempts++
		if attempts == 2 {
			return nil
		}
		return errors.New("temporary")
	})
	assert.Equal(t, 2, attempts)

	attempts = 0
	cancel()
	runWithRetry(ctx, &sarama.ConsumerMessage{}, func(context.Context, *sarama.ConsumerMessage) error {
		attempts++
		return errors.New("down")
	})
	assert.Equal(t, 1, attempts)
}

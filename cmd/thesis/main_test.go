package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/profile"
	"github.com/haowjy/thesis-llm-go/prompts"
	"github.com/haowjy/thesis-llm-go/render"
)

type scriptedProvider struct {
	deltas []string
	err    error
	user   string
}

func (p *scriptedProvider) Name() llmprovider.ProviderID { return "scripted" }

func (p *scriptedProvider) StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	p.user = userMessage
	if p.err != nil {
		return "", p.err
	}
	var acc llmprovider.Accumulator
	for _, d := range p.deltas {
		soFar := acc.Append(d)
		if onDelta != nil {
			onDelta(soFar)
		}
	}
	return acc.String(), nil
}

func (p *scriptedProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	p.user = userMessage
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.deltas, ""), nil
}

func newService(t *testing.T, p llmprovider.Provider, store profile.Store) *assistant.Service {
	t.Helper()
	reg, err := prompts.Default()
	require.NoError(t, err)
	return assistant.New(p, reg,
		assistant.WithRenderer(render.Func(render.Plain)),
		assistant.WithStore(store),
	)
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseFlags([]string{"-use-case", "topic-selection", "-major", "law", "-input", "数据隐私"}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, prompts.TopicSelection, o.useCase)
	assert.Equal(t, "law", o.major)
	assert.Equal(t, "数据隐私", o.input)
	assert.False(t, o.html)
}

func TestParseFlags_Defaults(t *testing.T) {
	o, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, prompts.Assistant, o.useCase)
}

func TestParseFlags_InputAndFileConflict(t *testing.T) {
	_, err := parseFlags([]string{"-input", "a", "-file", "b.txt"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_BadFlags(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, &bytes.Buffer{}, &stderr))
	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, &bytes.Buffer{}, &stderr))
}

func TestOptionsProfile(t *testing.T) {
	o := options{major: " computer ", education: "博士", topic: "图神经网络"}
	p, err := o.profile()
	require.NoError(t, err)
	assert.Equal(t, "computer", p.Major)
	assert.Equal(t, profile.EducationDoctoral, p.Education)
	assert.Equal(t, "图神经网络", p.Topic)

	_, err = options{education: "kindergarten"}.profile()
	assert.True(t, llmprovider.IsInvalidRequest(err))
}

func TestOptionsRequest_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(path, []byte("# 开题报告\r\n\r\n研究内容"), 0o600))

	req, err := options{useCase: prompts.ProposalAppraise, file: path}.request()
	require.NoError(t, err)
	assert.Equal(t, "# 开题报告\n\n研究内容", req.Input)
	assert.Equal(t, prompts.ProposalAppraise, req.UseCase)
}

func TestOptionsRequest_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	_, err := options{file: path}.request()
	assert.Error(t, err)
}

func TestExecute_StreamsNewTextOnly(t *testing.T) {
	p := &scriptedProvider{deltas: []string{"选题", "一", "和二"}}
	svc := newService(t, p, &profile.MemoryStore{})

	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), svc, options{
		useCase: prompts.TopicSelection,
		major:   "computer",
		input:   "机器学习",
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "选题一和二\n", stdout.String())
	assert.Contains(t, p.user, "机器学习")
}

func TestExecute_HTML(t *testing.T) {
	p := &scriptedProvider{deltas: []string{"评估", "结果"}}
	svc := newService(t, p, &profile.MemoryStore{})

	var stdout bytes.Buffer
	err := execute(context.Background(), svc, options{
		useCase: prompts.TopicAppraise,
		major:   "law",
		input:   "数据隐私保护",
		html:    true,
	}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, render.Plain("评估结果")+"\n", stdout.String())
}

func TestExecute_ValidationError(t *testing.T) {
	p := &scriptedProvider{deltas: []string{"x"}}
	svc := newService(t, p, &profile.MemoryStore{})

	err := execute(context.Background(), svc, options{
		useCase: prompts.TopicSelection,
		input:   "机器学习",
	}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "请选择论文专业", llmprovider.UserMessage(err))
	assert.Empty(t, p.user, "backend must not be called")
}

func TestExecute_SaveProfileThenReuse(t *testing.T) {
	store := &profile.MemoryStore{}
	p := &scriptedProvider{deltas: []string{"好"}}
	svc := newService(t, p, store)

	err := execute(context.Background(), svc, options{
		useCase:     prompts.TopicSelection,
		major:       "computer",
		input:       "机器学习",
		saveProfile: true,
	}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "computer", stored.Major)

	// The stored major now satisfies the rule without a flag.
	err = execute(context.Background(), svc, options{
		useCase: prompts.TopicSelection,
		input:   "机器学习",
	}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestPrinter(t *testing.T) {
	var out, notices bytes.Buffer
	pr := newPrinter(&out, &notices)

	pr.update(assistant.Update{Text: "A"})
	pr.update(assistant.Update{Text: "AB"})
	pr.update(assistant.Update{Text: "AB"})
	assert.Equal(t, "AB", out.String())

	pr.update(assistant.Update{Text: "演示", Fallback: true})
	pr.update(assistant.Update{Text: "演示内容", Fallback: true})
	assert.Equal(t, "AB\n演示内容", out.String())
	assert.Contains(t, notices.String(), "演示内容")
}

func TestListUseCases(t *testing.T) {
	svc := newService(t, &scriptedProvider{}, &profile.MemoryStore{})
	var out bytes.Buffer
	listUseCases(svc, &out)

	for _, tag := range []string{prompts.Assistant, prompts.TopicSelection, prompts.TopicAppraise} {
		assert.Contains(t, out.String(), tag)
	}
	assert.Contains(t, out.String(), "computer")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

func TestRedisGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "search-history")).
		Return(mock.Result(mock.RedisString(`[]`)))

	got, err := newRedisWithClient(c).Get(context.Background(), "search-history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get = %q, want []", got)
	}
}

func TestRedisGet_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "nope")).
		Return(mock.Result(mock.RedisNil()))

	_, err := newRedisWithClient(c).Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRedisGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := newRedisWithClient(c).Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestRedisSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "layout", `{"sidebar_open":true}`)).
		Return(mock.Result(mock.RedisString("OK")))

	if err := newRedisWithClient(c).Set(context.Background(), "layout", []byte(`{"sidebar_open":true}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedisRemove(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "layout")).
		Return(mock.Result(mock.RedisInt64(1)))

	if err := newRedisWithClient(c).Remove(context.Background(), "layout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

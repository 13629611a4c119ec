// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package console assembles the client-side session stack.

	httpclient.Client ◀── refresh.Coordinator (interceptor)
	        ▲                     │ OnExpired
	session.Store ◀───────────────┘
	        ▲
	guard.Guard

One [Console] owns exactly one coordinator; independent consoles never share
refresh state.
*/
package console

import (
	"log/slog"

	"github.com/taibuivan/foundation-console/internal/console/httpclient"
	"github.com/taibuivan/foundation-console/internal/console/navigate"
	"github.com/taibuivan/foundation-console/internal/console/refresh"
	"github.com/taibuivan/foundation-console/internal/console/session"
	"github.com/taibuivan/foundation-console/internal/platform/config"
)

// Console is a wired client session stack.
type Console struct {
	Client      *httpclient.Client
	Coordinator *refresh.Coordinator
	Store       *session.Store
	Navigator   navigate.Navigator
}

// New wires a [Console] from cfg. A nil navigator logs redirects.
func New(cfg *config.Console, logger *slog.Logger, navigator navigate.Navigator) (*Console, error) {
	if navigator == nil {
		navigator = navigate.NewRecorder(logger)
	}

	client, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	coordinator := refresh.Install(client, refresh.Options{
		Timeout:   cfg.RefreshTimeout,
		Navigator: navigator,
		Logger:    logger,
	})

	store := session.New(client, session.Options{
		Idler:  coordinator,
		Logger: logger,
	})
	coordinator.OnExpired(store.Expire)

	return &Console{
		Client:      client,
		Coordinator: coordinator,
		Store:       store,
		Navigator:   navigator,
	}, nil
}

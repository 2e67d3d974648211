package main

import (
	"crypto/tls"
	"fmt"
	"os"

	// Packages
	httphandler "github.com/mutablelogic/go-agentstream/pkg/httphandler"
	version "github.com/mutablelogic/go-agentstream/pkg/version"
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	otel "github.com/mutablelogic/go-server/pkg/otel"
)

type ServerCommands struct {
	RunServer RunServer `cmd:"" name:"run" help:"Run server." group:"SERVER"`
}

type RunServer struct {
	// TLS server options
	TLS struct {
		ServerName string `name:"name" help:"TLS server name"`
		CertFile   string `name:"cert" help:"TLS certificate file"`
		KeyFile    string `name:"key" help:"TLS key file"`
	} `embed:"" prefix:"tls."`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServer) Run(ctx *Globals) error {
	engine, err := ctx.NewEngine()
	if err != nil {
		return err
	}

	// Create the TLS config if TLS options are provided
	tlsConfig, err := cmd.tlsConfig()
	if err != nil {
		return err
	}

	// Create the server
	srv, err := httpserver.New(ctx.HTTP.Addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("httpserver: %w", err)
	}

	// Log each request, and trace it when there is an exporter
	middleware := []httprouter.HTTPMiddlewareFunc{
		otel.HTTPHandlerFunc(srv.URL().Host, ctx.logger),
	}

	// Create the HTTP router
	versionTag := version.Version()
	router, err := httprouter.NewRouter(ctx.ctx, srv.Router(), ctx.HTTP.Prefix, ctx.HTTP.Origin, "Agent Stream Server", versionTag, middleware...)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	} else if err := httphandler.RegisterHandlers(engine, router, ctx.AdapterOpts()...); err != nil {
		return err
	} else if err := router.RegisterCatchAll("/", false); err != nil {
		return err
	}

	// Run the server
	if err := srv.Listen(); err != nil {
		return err
	}
	ctx.logger.Info("server started", "name", ctx.execName, "version", versionTag, "addr", srv.Addr(), "prefix", ctx.HTTP.Prefix)
	if err := srv.Run(ctx.ctx); err != nil {
		return err
	}

	// Return success
	ctx.logger.Info("server stopped", "name", ctx.execName, "version", versionTag)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (cmd *RunServer) tlsConfig() (*tls.Config, error) {
	if cmd.TLS.CertFile == "" && cmd.TLS.KeyFile == "" {
		return nil, nil
	}
	var pemData [][]byte
	for _, path := range []string{cmd.TLS.CertFile, cmd.TLS.KeyFile} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS file: %w", err)
		}
		pemData = append(pemData, data)
	}
	config, err := httpserver.TLSConfig(cmd.TLS.ServerName, false, pemData...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS config: %w", err)
	}
	return config, nil
}

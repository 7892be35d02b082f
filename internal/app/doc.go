// Package app wires configuration, telemetry, the run pipeline, services
// and HTTP handlers into one Application and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Initialize logging (unless the caller supplies a logger)
//	2. Initialize OpenTelemetry and business metrics
//	3. Start the WebSocket hub and build the browser and Sheets API sources
//	4. Create the run Runner and the services on top of it
//	5. Build the chi router and the HTTP server
//	6. Log a startup check of the browser profile and env file
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns once ctx is cancelled or SIGINT/SIGTERM arrives. Shutdown
// stops accepting requests, cancels live runs and waits for them to record
// a result, closes WebSocket clients and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app

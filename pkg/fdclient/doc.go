// Package fdclient provides the primary entry point for constructing a
// Foundation API client that implements the foundation.Client interface.
//
// It layers configuration, the multipart HTTP transport, and the resource
// catalog on top of the types defined in the foundation package. Nothing is
// fetched at construction time; the catalog is discovered on first use.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/foundation-client/pkg/fdclient"
//	  "github.com/fivetwenty-io/foundation-client/pkg/foundation"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := fdclient.NewWithAPIKey(ctx, "my-api-key")
//	  if err != nil { log.Fatal(err) }
//
//	  user, err := cli.Resource(ctx, "User", "42")
//	  if err != nil { log.Fatal(err) }
//
//	  name, err := user.InvokeGetter(ctx, "getName")
//	  if err != nil { log.Fatal(err, cli.Message()) }
//	  _ = name.Value
//	}
//
// # Hosts
//
// Config.Host may be a bare host name ("my.tmmlog.in"), in which case https
// is assumed, or a full origin such as "http://localhost:8080". An Auth entry
// named "host" is treated as the host and is not forwarded.
package fdclient

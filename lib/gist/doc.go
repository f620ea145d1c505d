// Package gist provides a Go client for the GitHub Gists API.
//
// Every operation returns an Envelope, the decoded JSON body merged with the
// HTTP status code under the "code" key. Basic usage:
//
//	client, err := gist.New(gist.WithToken("ghp_..."))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// list gists of the authenticated user
//	gists, err := client.List(ctx, gist.ListParams{PerPage: 50})
//
//	// create a gist from inline content
//	created, err := client.Create(ctx, gist.Text("hello"), gist.CreateOptions{
//	    FileName:    "hello.txt",
//	    Description: "greeting",
//	})
//
//	// create a gist from files on disk
//	created, err = client.Create(ctx, gist.Files("main.go", "go.mod"), gist.CreateOptions{})
//
//	// update one file of an existing gist
//	updated, err := client.Update(ctx, id, "hello.txt", gist.Text("bye"), "")
//
//	// star, fork, inspect history
//	_, err = client.Star(ctx, id)
//	_, err = client.Fork(ctx, id)
//	commits, err := client.Commits(ctx, id, gist.ListParams{})
//
// Without an explicit token the client falls back to the AUTH_TOKEN_PATH and
// AUTH_TOKEN environment variables; file-sourced tokens must carry the "ghp_"
// prefix.
//
// With custom options:
//
//	client, err := gist.New(
//	    gist.WithToken("ghp_..."),
//	    gist.WithTimeout(10*time.Second),
//	    gist.WithRetry(5, 200*time.Millisecond),
//	)
//
// The retrying executor is exposed directly for callers that need it: Do is
// the context-driven form, Go runs the same exchange on a private context and
// delivers the result on a channel:
//
//	res := <-client.Go(gist.Request{Method: http.MethodGet, Path: "/public"})
//	if res.Err != nil { ... }
package gist

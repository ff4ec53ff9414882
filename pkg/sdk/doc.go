// Package sightline provides a Go client for the sightline conversational
// analytics API.
//
//	client, _ := sightline.New("http://localhost:8080",
//	    sightline.WithAPIKey(os.Getenv("SIGHTLINE_API_KEY")),
//	)
//
//	resp, _ := client.Chat(ctx, sightline.ChatRequest{
//	    Message: "What changed in revenue this quarter?",
//	    Charts: []sightline.Source{
//	        {Text: "Revenue increased 47.3% quarter over quarter", SourceRef: "q3.pdf#p2"},
//	    },
//	})
//	fmt.Println(resp.Response, resp.Insights)
//
// Streaming delivers answer tokens as they are generated:
//
//	resp, _ := client.ChatStream(ctx, req, func(token string) {
//	    fmt.Print(token)
//	})
package sightline

// Package webtools provides the web_search and web_scrape tools.
//
// Both tools call a crawl service that exposes two endpoints:
//
//	GET {endpoint}/search?query=...&time_range=...&website=...  -> [{"url","title","content"}]
//	GET {endpoint}/scrape?url=...                                -> {"url","title","content"} or HTML
//
// Register them with a toolchain.Registry:
//
//	client, err := webtools.NewClient(os.Getenv("CRAWL4AI_ENDPOINT"))
//	if err != nil {
//	    return err
//	}
//	registry := toolchain.NewRegistry().MustRegister(
//	    webtools.SearchTool(client, 0),
//	    webtools.ScrapeTool(client, 0),
//	)
package webtools

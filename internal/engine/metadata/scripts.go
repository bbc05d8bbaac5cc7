package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// harvestScriptGlobals executes inline scripts in a minimal mocked browser
// environment and inspects the globals they assign for title/thumbnail
// candidates. Most scripts fail against the stub DOM; that is expected and
// ignored.
func harvestScriptGlobals(doc *goquery.Document, pageURL string, meta *PageMeta) {
	vm := goja.New()

	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("document", map[string]interface{}{
		"location": map[string]interface{}{
			"href": pageURL,
		},
	})
	vm.Set("location", map[string]interface{}{
		"href": pageURL,
	})
	vm.Set("console", map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value {
			return nil
		},
		"error": func(call goja.FunctionCall) goja.Value {
			return nil
		},
	})

	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		// Skip external scripts
		if _, exists := sel.Attr("src"); exists {
			return
		}
		if content := sel.Text(); content != "" {
			_, _ = vm.RunString(content)
		}
	})

	for _, key := range vm.GlobalObject().Keys() {
		if isStandardGlobal(key) {
			continue
		}
		val := vm.Get(key)
		if val == nil {
			continue
		}
		obj, ok := val.Export().(map[string]interface{})
		if !ok {
			continue
		}
		if meta.Title == "" {
			meta.Title = stringField(obj, "title", "videoTitle", "name")
		}
		if meta.Thumbnail == "" {
			meta.Thumbnail = stringField(obj, "thumbnail", "thumbnailUrl", "poster", "image")
		}
	}
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isStandardGlobal(key string) bool {
	standards := map[string]bool{
		"window": true, "self": true, "document": true, "location": true, "console": true,
		"Object": true, "Array": true, "String": true, "Number": true, "Boolean": true,
		"Date": true, "Math": true, "JSON": true, "RegExp": true, "Error": true,
		"Function": true, "parseInt": true, "parseFloat": true, "isNaN": true,
		"isFinite": true, "encodeURI": true, "decodeURI": true, "encodeURIComponent": true,
		"decodeURIComponent": true, "undefined": true, "NaN": true, "Infinity": true,
	}
	return standards[key]
}

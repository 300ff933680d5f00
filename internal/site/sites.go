package site

// autoplayScript unmutes and starts the first video element on the page.
const autoplayScript = `(function () {
  var v = document.querySelector('video');
  if (!v) { return; }
  v.muted = false;
  v.autoplay = true;
  if (v.paused) { v.play().catch(function () {}); }
})();`

// Generic is the catch-all adapter: it autoplays the page's video and asks the
// first video element to go fullscreen.
var Generic = Adapter{
	Name:     "generic",
	Match:    Any(),
	Script:   autoplayScript,
	Protocol: DOMTarget{Selector: "video"},
}

// Built-in site adapters in priority order.
var (
	BrowserInternal = Adapter{
		Name:     "browser-internal",
		Match:    HasPrefix("chrome:", "about:"),
		Protocol: NoOp{},
	}

	TBSDebug = Adapter{
		Name:     "tbs-debug",
		Match:    Contains("debugtbs.qq.com", "res.imtt.qq.com"),
		Protocol: NoOp{},
	}

	FourGTV = Adapter{
		Name:     "4gtv",
		Match:    Contains("4gtv"),
		Script:   autoplayScript,
		Protocol: DOMTarget{Selector: "#videoPlay_html5_api"},
	}

	MGTV = Adapter{
		Name:     "mgtv",
		Match:    Contains("live.mgtv.com"),
		Script:   autoplayScript,
		Protocol: KeyPress{Key: KeyF},
	}

	VOANews = Adapter{
		Name:     "voanews",
		Match:    Contains("voanews.com"),
		Script:   autoplayScript,
		Protocol: KeyPress{Key: KeyF},
	}

	SZTV = Adapter{
		Name:     "sztv",
		Match:    Contains("sztv.com.cn"),
		Script:   autoplayScript,
		Protocol: KeyPress{},
	}

	Yangshipin = Adapter{
		Name:                  "yangshipin",
		Match:                 Contains("yangshipin.cn"),
		Script:                autoplayScript,
		Protocol:              DOMTarget{Selector: "video"},
		DisablePlayStateCheck: true,
	}
)

// DefaultRegistry returns a registry holding every built-in adapter with
// Generic as the fallback.
func DefaultRegistry() *Registry {
	return NewRegistry(Generic,
		BrowserInternal,
		TBSDebug,
		FourGTV,
		MGTV,
		VOANews,
		SZTV,
		Yangshipin,
	)
}

package props

var layout = []string{"padding", "margin", "background", "color", "gap", "width", "height", "align", "className"}

func with(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// DefaultComponents is the built-in block palette.
var DefaultComponents = []ComponentSpec{
	{Type: "Container", Structural: with(layout, "flexDirection", "alignItems", "justifyContent")},
	{Type: "Section", Structural: with(layout, "fullWidth", "anchor"), Opaque: []string{"backgroundImage"}},
	{Type: "Columns", Structural: with(layout, "columns", "stackOnMobile")},
	{Type: "Column", Structural: with(layout, "span")},
	{Type: "Text", Structural: with(layout, "fontSize", "fontWeight", "textAlign"), Translatable: []string{"text"}},
	{Type: "Heading", Structural: with(layout, "level", "textAlign"), Translatable: []string{"text"}},
	{Type: "Button", Structural: with(layout, "href", "variant", "size", "target", "fullWidth"), Translatable: []string{"label", "ariaLabel"}},
	{Type: "Image", Structural: with(layout, "objectFit", "radius"), Translatable: []string{"alt", "caption"}, Opaque: []string{"src", "srcset", "mediaId"}},
	{Type: "Video", Structural: with(layout, "autoplay", "loop", "controls", "aspectRatio"), Translatable: []string{"title"}, Opaque: []string{"src", "poster", "mediaId"}},
	{Type: "List", Structural: with(layout, "ordered", "marker"), Translatable: []string{"items"}},
	{Type: "Hero", Structural: with(layout, "ctaHref", "overlay"), Translatable: []string{"title", "subtitle", "ctaLabel"}, Opaque: []string{"backgroundImage"}},
	{Type: "Card", Structural: with(layout, "href", "elevation"), Translatable: []string{"title", "body", "linkLabel"}, Opaque: []string{"image"}},
	{Type: "Quote", Structural: with(layout, "textAlign"), Translatable: []string{"text", "attribution"}},
	{Type: "Embed", Structural: with(layout, "aspectRatio"), Translatable: []string{"title"}, Opaque: []string{"url"}},
	{Type: "Spacer", Structural: []string{"height"}},
	{Type: "Divider", Structural: []string{"thickness", "color", "style", "margin"}},
}

// Default returns a registry seeded with DefaultComponents.
func Default() *Registry {
	return MustRegistry(DefaultComponents...)
}

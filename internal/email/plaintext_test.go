package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToTextAnchorsKeepTarget(t *testing.T) {
	in := `<p>Vezi <a href="https://shop.example.com/orders/1">comanda ta</a> aici.</p>`
	out := HTMLToText(in)
	assert.Equal(t, "Vezi comanda ta (https://shop.example.com/orders/1) aici.", out)
}

func TestHTMLToTextDropsImages(t *testing.T) {
	in := `<p>Salut</p><img src="https://notify.example.com/t/open?sid=1" width="1" height="1">`
	out := HTMLToText(in)
	assert.Equal(t, "Salut", out)
	assert.NotContains(t, out, "/t/open")
}

func TestHTMLToTextBlocksAndBreaks(t *testing.T) {
	in := "<div>Rând unu<br>Rând doi</div><p>Rând trei</p>"
	out := HTMLToText(in)
	assert.Equal(t, "Rând unu\nRând doi\nRând trei", out)
}

func TestHTMLToTextStripsStyleAndEntities(t *testing.T) {
	in := `<style>p { color: red; }</style><p>Total: 249.50&nbsp;lei &amp; TVA</p>`
	out := HTMLToText(in)
	assert.NotContains(t, out, "color")
	assert.Contains(t, out, "249.50")
	assert.Contains(t, out, "& TVA")
}

func TestHTMLToTextCollapsesBlankRuns(t *testing.T) {
	in := "<p>unu</p><p></p><p></p><p>doi</p>"
	out := HTMLToText(in)
	assert.Equal(t, "unu\n\ndoi", out)
}

func TestHTMLToTextBareURLAnchor(t *testing.T) {
	in := `<a href="https://shop.example.com">https://shop.example.com</a>`
	assert.Equal(t, "https://shop.example.com", HTMLToText(in))
}

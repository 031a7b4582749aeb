package httpapi

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/widget"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weather</title>
{{if .Loading}}<meta http-equiv="refresh" content="1">{{end}}
</head>
<body>
<form method="post" action="/api/v1/widget/submit">
  <input type="text" name="text" placeholder="Enter city name..." value="{{.Input}}" autofocus>
</form>
<form method="post" action="/api/v1/widget/unit/toggle">
  <button type="submit">{{.ToggleLabel}}</button>
</form>

{{if .Loading}}<div>Loading...</div>{{end}}
{{if .Error}}<div style="color: red">{{.Error}}</div>{{end}}

{{with .Result}}
<div>
  <h2>{{.Name}}, {{.Region}}, {{.Country}}</h2>
  <p>Temperature: {{.Temperature}} °{{.Unit}}</p>
  <p>Condition: {{.Condition}}</p>
  {{if .Icon}}<img src="{{.Icon}}" alt="{{.Condition}}">{{end}}
  <p>Humidity: {{.Humidity}} %</p>
  <p>Pressure: {{.PressureMb}} mb</p>
  <p>Visibility: {{.VisKm}} km</p>
</div>
{{end}}

<div>
  <h3>Recent Searches</h3>
  <ul>
  {{range $i, $city := .Recent}}
    <li><form method="post" action="/api/v1/widget/recent/{{$i}}"><button type="submit">{{$city}}</button></form></li>
  {{end}}
  </ul>
</div>
</body>
</html>
`))

func renderPage(c *fiber.Ctx, view widget.View) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hex": color.Hex,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Color Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.swatch { width: 100%; height: 80px; border: 1px solid #888; }
.unknown { color: orange; }
.error { color: red; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Color Sensor</h1>

<h2>Reading</h2>
{{if .Ready}}<div id="swatch" class="swatch" style="background: {{hex .RGB}}"></div>
<table>
<tr><th>Hex</th><td id="hex">{{hex .RGB}}</td></tr>
<tr><th>R</th><td>{{index .RGB 0}} ({{index .Raw 0}} Hz)</td></tr>
<tr><th>G</th><td>{{index .RGB 1}} ({{index .Raw 1}} Hz)</td></tr>
<tr><th>B</th><td>{{index .RGB 2}} ({{index .Raw 2}} Hz)</td></tr>
</table>{{else}}<p class="unknown">no reading yet</p>{{end}}
{{if .LastError}}<p class="error">{{.LastError}}</p>{{end}}

<h2>Calibration</h2>
<table>
<tr><th>Channel</th><td>low / high (Hz)</td></tr>
<tr><th>R</th><td>{{(index .Calibration 0).Low}} / {{(index .Calibration 0).High}}</td></tr>
<tr><th>G</th><td>{{(index .Calibration 1).Low}} / {{(index .Calibration 1).High}}</td></tr>
<tr><th>B</th><td>{{(index .Calibration 2).Low}} / {{(index .Calibration 2).High}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Readings</th><td>{{.Counts.Readings}}</td></tr>
<tr><th>Published</th><td>{{.Counts.Published}}</td></tr>
<tr><th>Errors</th><td>{{.Counts.Errors}}</td></tr>
<tr><th>Pulse timeouts</th><td>{{.Timeouts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Strategy</th><td>{{.Config.Strategy}}</td></tr>
<tr><th>Mapping</th><td>{{.Config.Mapping}}</td></tr>
<tr><th>Pins</th><td>{{.Config.Chip}} out={{.Config.Pins.Out}} s2={{.Config.Pins.S2}} s3={{.Config.Pins.S3}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot ID</th><td>{{.BootID}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Delta</th><td>{{.Config.Delta}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

package report

// RegressionTemplate is the HTML template for one estimated model.
// It is embedded as a Go constant, no external file dependencies.
const RegressionTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Model}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 760px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.4rem; color: var(--accent); margin-bottom: 2px; }
  h2 { font-size: 1.1rem; margin: 20px 0 10px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .stat-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(150px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin: 14px 0;
  }
  .stat-item { text-align: center; }
  .stat-item .label { font-size: 0.72rem; color: var(--muted); text-transform: uppercase; }
  .stat-item .value { font-size: 1rem; font-weight: 600; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .footer { margin-top: 22px; padding-top: 10px; border-top: 1px solid var(--border); }
</style>
</head>
<body>

<h1>{{.Model}}</h1>
<p class="muted">{{.Description}} · dependent variable {{.Dependent}}</p>

<div class="stat-grid">
  <div class="stat-item"><div class="label">Observations</div><div class="value">{{.N}}</div></div>
  <div class="stat-item"><div class="label">Dropped listwise</div><div class="value">{{.Dropped}}</div></div>
  <div class="stat-item"><div class="label">R&sup2;</div><div class="value">{{.R2}}</div></div>
  <div class="stat-item"><div class="label">Adj. R&sup2;</div><div class="value">{{.AdjR2}}</div></div>
  <div class="stat-item"><div class="label">Residual std</div><div class="value">{{.ResidualStd}}</div></div>
</div>

<h2>Coefficients</h2>
<table>
  <tr><th>Variable</th><th>Estimate</th><th>Std. error</th><th>t</th></tr>
  {{range .Coefficients}}
  <tr><td>{{.Name}}</td><td class="num">{{.Estimate}}</td><td class="num">{{.StdErr}}</td><td class="num">{{.TStat}}</td></tr>
  {{end}}
</table>

<div class="footer muted">
  Generated by esefscan on {{.GeneratedAt}}. Ordinary least squares over the master dataset;
  observations missing any model variable are excluded listwise.
</div>

</body>
</html>`

// RunReportTemplate is the HTML template for one ingestion run.
const RunReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Ingestion run {{.RunID}}</title>
<style>
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: #1a1a2e;
    line-height: 1.6;
    max-width: 760px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.4rem; color: #2563eb; margin-bottom: 2px; }
  h2 { font-size: 1.1rem; margin: 20px 0 10px; padding-bottom: 6px; border-bottom: 2px solid #2563eb; }
  .muted { color: #6b7280; font-size: 0.85rem; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: #f8fafc; text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid #e5e7eb; }
</style>
</head>
<body>

<h1>Ingestion run</h1>
<p class="muted">Run {{.RunID}} · {{.GeneratedAt}} · took {{.Duration}}</p>

<h2>Totals</h2>
<table>
  <tr><th>Packages loaded</th><td>{{.Loaded}}</td></tr>
  <tr><th>Duplicates skipped</th><td>{{.Duplicates}}</td></tr>
  <tr><th>Not loadable</th><td>{{.UnloadableCount}}</td></tr>
  <tr><th>Dataset rows</th><td>{{.DatasetRows}}</td></tr>
</table>

{{if .Unloadable}}
<h2>Packages not loadable</h2>
<table>
  <tr><th>Package</th><th>Reason</th></tr>
  {{range .Unloadable}}
  <tr><td>{{.Package}}</td><td>{{.Reason}}</td></tr>
  {{end}}
</table>
{{end}}

</body>
</html>`

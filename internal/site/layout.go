package site

import "html/template"

// layoutContext is the data the page shell template renders with.
type layoutContext struct {
	SiteTitle string
	PageTitle string
	Content   template.HTML
}

// layoutTemplate is the minimal HTML shell wrapped around every rendered
// document. Styling is left to the deployment.
const layoutTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .PageTitle }} - {{ .SiteTitle }}</title>
</head>
<body>
<main>
{{ .Content }}</main>
</body>
</html>
`

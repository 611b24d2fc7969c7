package tray

import "fyne.io/fyne/v2"

// SVG content for the tray icon: capture brackets around a speech mark.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="24" height="24">
  <path fill="#0078d4" d="M3 5v4h2V5h4V3H5c-1.1 0-2 .9-2 2zm2 10H3v4c0 1.1.9 2 2 2h4v-2H5v-4zm14 4h-4v2h4c1.1 0 2-.9 2-2v-4h-2v4zm0-16h-4v2h4v4h2V5c0-1.1-.9-2-2-2z"/>
  <text x="12" y="15.5" font-family="sans-serif" font-size="8" font-weight="bold" text-anchor="middle" fill="#333333">Aa</text>
</svg>`

// Icon is the tray icon resource.
var Icon fyne.Resource = fyne.NewStaticResource("screen-ocr-translate.svg", []byte(SVGContent))

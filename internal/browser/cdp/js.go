// internal/browser/cdp/js.go
package cdp

import "encoding/json"

// Element functions run with `this` bound to the resolved node. wrapElementFn
// turns a detached node into a {stale: true} envelope and a thrown error into
// {err: "..."} so neither depends on how CDP formats exceptions.
func wrapElementFn(body string) string {
	return `function() {
	if (!this || !this.isConnected) { return {stale: true}; }
	try {
		const value = (` + body + `).apply(this, arguments);
		return value === undefined ? {} : {value: value};
	} catch (e) {
		return {err: String((e && e.message) || e)};
	}
}`
}

// jsFindAll returns the matching elements as an array, in document order.
const jsFindAll = `(function(kind, query) {
	if (kind === "xpath") {
		const snap = document.evaluate(query, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const out = [];
		for (let i = 0; i < snap.snapshotLength; i++) {
			const n = snap.snapshotItem(i);
			if (n && n.nodeType === Node.ELEMENT_NODE) { out.push(n); }
		}
		return out;
	}
	return Array.from(document.querySelectorAll(query));
})(%s, %s)`

const jsState = `function() {
	const rect = this.getBoundingClientRect();
	const style = window.getComputedStyle(this);
	const displayed = rect.width > 0 && rect.height > 0 &&
		style.visibility !== "hidden" && style.display !== "none" &&
		parseFloat(style.opacity || "1") > 0;
	const enabled = !this.disabled && this.getAttribute("aria-disabled") !== "true";
	let obscured = false;
	if (displayed) {
		const cx = rect.left + rect.width / 2;
		const cy = rect.top + rect.height / 2;
		if (cx >= 0 && cy >= 0 && cx <= window.innerWidth && cy <= window.innerHeight) {
			const top = document.elementFromPoint(cx, cy);
			obscured = !!top && top !== this && !this.contains(top);
		}
	}
	return {attached: true, displayed: displayed, enabled: enabled, obscured: obscured};
}`

// jsClickPoint centres the element in the viewport and reports the point a
// native mouse click should land on.
const jsClickPoint = `function() {
	this.scrollIntoView({block: "center", inline: "center"});
	const rect = this.getBoundingClientRect();
	if (rect.width === 0 || rect.height === 0) { throw new Error("element has no size"); }
	return {x: rect.left + rect.width / 2, y: rect.top + rect.height / 2};
}`

// jsClear resets a controlled input. Assigning .value directly is ignored by
// React, so the native setter is used and the input event dispatched.
const jsClear = `function() {
	this.focus();
	const proto = this instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, "value");
	if (!desc || !desc.set) { throw new Error("element has no value to clear"); }
	desc.set.call(this, "");
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

const jsFocus = `function() { this.focus(); }`

const jsText = `function() { return this.innerText || this.textContent || ""; }`

const jsScrollIntoView = `function() { this.scrollIntoView({block: "center", inline: "nearest"}); }`

const jsSelectValue = `function(value) {
	if (!(this instanceof HTMLSelectElement)) { throw new Error("element is not a <select>"); }
	if (!Array.from(this.options).some(function(o) { return o.value === value; })) {
		throw new Error("no option with value " + JSON.stringify(value));
	}
	const desc = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, "value");
	desc.set.call(this, value);
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

const jsLength = `function() { return this.length; }`

const jsIndex = `function() { return this[%d]; }`

// jsonEncode safely embeds a Go value in a JavaScript expression.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

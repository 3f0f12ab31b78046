package browser

// JavaScript snippets evaluated inside the page. They are kept free of
// template literals so they can live in Go raw strings.

// snapshotScript walks the DOM and returns the visible interactive elements,
// indexed in document order. The xpath of each element anchors later
// interactions; indexes are only stable within one snapshot.
const snapshotScript = `(function() {
	function isVisible(el) {
		if (!el || !(el instanceof Element)) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}

	function xpathOf(el) {
		if (el === document.body) return '/html/body';
		const parts = [];
		while (el && el.nodeType === Node.ELEMENT_NODE) {
			let idx = 1;
			let sib = el.previousElementSibling;
			while (sib) {
				if (sib.nodeName === el.nodeName) idx++;
				sib = sib.previousElementSibling;
			}
			parts.unshift(el.nodeName.toLowerCase() + '[' + idx + ']');
			el = el.parentElement;
		}
		return '/' + parts.join('/');
	}

	const selector = 'a, button, input, select, textarea, [onclick], [role="button"], [role="link"], [contenteditable="true"]';
	const seen = new Set();
	const out = [];
	let index = 0;
	document.querySelectorAll(selector).forEach(function(el) {
		if (!isVisible(el) || seen.has(el)) return;
		seen.add(el);
		const attrs = {};
		for (const a of el.attributes) {
			if (['id', 'name', 'type', 'value', 'href', 'placeholder', 'aria-label', 'title', 'role', 'alt'].includes(a.name)) {
				attrs[a.name] = a.value.slice(0, 200);
			}
		}
		out.push({
			index: index++,
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.value || '').trim().slice(0, 200),
			attributes: attrs,
			xpath: xpathOf(el)
		});
	});
	return out;
})()`

// scrollToTextScript finds the first text occurrence and scrolls it into
// view; evaluates to true when found. The %q verb injects the needle.
const scrollToTextScriptFmt = `(function() {
	const needle = %q;
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT, null);
	let node;
	while ((node = walker.nextNode())) {
		if (node.textContent && node.textContent.includes(needle)) {
			const el = node.parentElement;
			if (el) {
				el.scrollIntoView({behavior: 'instant', block: 'center'});
				return true;
			}
		}
	}
	return false;
})()`

// dropdownOptionsScriptFmt enumerates a select element's options by xpath.
const dropdownOptionsScriptFmt = `(function() {
	const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return {error: 'element not found'};
	if (el.tagName.toLowerCase() !== 'select') return {error: 'element is a ' + el.tagName.toLowerCase() + ', not a select'};
	const options = [];
	for (let i = 0; i < el.options.length; i++) {
		const o = el.options[i];
		options.push({index: i, text: o.text, value: o.value});
	}
	return {options: options};
})()`

// selectOptionScriptFmt selects the option whose visible text matches exactly
// and fires the change event the page listens for.
const selectOptionScriptFmt = `(function() {
	const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return {error: 'element not found'};
	if (el.tagName.toLowerCase() !== 'select') return {error: 'element is a ' + el.tagName.toLowerCase() + ', not a select'};
	const want = %q;
	for (let i = 0; i < el.options.length; i++) {
		if (el.options[i].text === want) {
			el.selectedIndex = i;
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return {selected: el.options[i].value};
		}
	}
	return {error: 'no option with exact text ' + JSON.stringify(want)};
})()`

// fileUploaderScriptFmt reports whether the element is, contains, or labels a
// file input.
const fileUploaderScriptFmt = `(function() {
	const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return false;
	function isFileInput(e) {
		return e.tagName && e.tagName.toLowerCase() === 'input' && e.type === 'file';
	}
	if (isFileInput(el)) return true;
	if (el.querySelector('input[type="file"]')) return true;
	if (el.tagName.toLowerCase() === 'label' && el.htmlFor) {
		const target = document.getElementById(el.htmlFor);
		if (target && isFileInput(target)) return true;
	}
	return false;
})()`

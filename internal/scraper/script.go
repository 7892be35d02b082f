package scraper

// readTableJS collects the visible grid as a row-major string matrix.
// It understands, in order of preference, data-header-column headers with
// data-value cells, cells annotated with data-row and data-column
// attributes, the htmlview "waffle" table, any plain table and ARIA grids.
//
// Header cells are ordered by their data-header-column index. A value cell
// lands in the column named by its data-column attribute, or fills the row
// left to right; a column that does not advance starts a new row.
const readTableJS = `(() => {
	const text = el => (el.innerText || el.textContent || '').trim();

	const headerEls = Array.from(document.querySelectorAll('[data-header-column]'));
	if (headerEls.length > 0) {
		const index = el => {
			const n = parseInt(el.getAttribute('data-header-column'), 10);
			return isNaN(n) ? Number.MAX_SAFE_INTEGER : n;
		};
		const headers = headerEls
			.map((el, i) => ({ el, i, n: index(el) }))
			.sort((a, b) => (a.n - b.n) || (a.i - b.i))
			.map(h => text(h.el));
		const width = headers.length;

		const rows = [headers];
		let row = null;
		let last = -1;
		Array.from(document.querySelectorAll('[data-value]'))
			.filter(el => !el.hasAttribute('data-header-column'))
			.forEach(el => {
				let c = parseInt(el.getAttribute('data-column'), 10);
				if (isNaN(c)) c = row === null ? 0 : (last + 1) % width;
				if (row === null || c <= last) {
					row = new Array(width).fill('');
					rows.push(row);
				}
				if (c < width) row[c] = String(el.getAttribute('data-value'));
				last = c;
			});
		return rows;
	}

	const annotated = document.querySelectorAll('[data-row][data-column]');
	if (annotated.length > 0) {
		const rows = [];
		annotated.forEach(el => {
			const r = parseInt(el.getAttribute('data-row'), 10);
			const c = parseInt(el.getAttribute('data-column'), 10);
			if (isNaN(r) || isNaN(c)) return;
			rows[r] = rows[r] || [];
			rows[r][c] = el.hasAttribute('data-value') ? el.getAttribute('data-value') : text(el);
		});
		return rows.filter(Boolean).map(r => Array.from(r, v => v == null ? '' : String(v)));
	}

	const table = document.querySelector('table.waffle') || document.querySelector('table');
	if (table) {
		return Array.from(table.querySelectorAll('tr'))
			.map(tr => Array.from(tr.querySelectorAll('td')).map(text))
			.filter(r => r.length > 0);
	}

	return Array.from(document.querySelectorAll('[role="row"]'))
		.map(row => Array.from(row.querySelectorAll('[role="gridcell"],[role="columnheader"]')).map(text))
		.filter(r => r.length > 0);
})()`

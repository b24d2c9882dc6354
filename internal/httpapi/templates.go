package httpapi

const sharedPageStyles = `
body { font-family: system-ui, sans-serif; margin: 0; color: #1d2330; background: #f6f7fb; }
main { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { text-align: left; padding: .5rem .75rem; border-bottom: 1px solid #e3e6ee; }
.status { margin: 1rem 0; min-height: 1.5rem; }
.status[data-kind="error"] { color: #b42318; }
footer { display: flex; gap: 1rem; justify-content: space-between; padding: 1rem; font-size: .85rem; color: #5b6275; }
`

const searchPageTemplateHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>{{.Styles}}</style>
</head>
<body id="search-page"
  data-api-base-url="{{.Endpoints.BaseURL}}"
  data-inventories-url="{{.Endpoints.Inventories}}"
  data-bookings-url="{{.Endpoints.Bookings}}"
  data-availability-template="{{.Endpoints.AvailabilityTemplate}}"
  data-booking-page-prefix="{{.BookingPagePrefix}}">
<main>
  <h1>{{.Title}}</h1>
  <label for="inventory-type">Type</label>
  <select id="inventory-type">
    <option value="">All</option>
    <option value="FLIGHT">Flights</option>
    <option value="HOTEL">Hotels</option>
  </select>
  <div id="search-status" class="status" role="status"></div>
  <table id="inventory-table">
    <thead><tr><th>Type</th><th>Item</th><th>Available</th><th>Quantity</th><th></th></tr></thead>
    <tbody id="inventory-rows"></tbody>
  </table>
</main>
{{.FooterHTML}}
<script>
(function () {
  var page = document.getElementById("search-page");
  var rows = document.getElementById("inventory-rows");
  var status = document.getElementById("search-status");
  var typeSelect = document.getElementById("inventory-type");

  function setStatus(message, kind) {
    status.textContent = message;
    status.setAttribute("data-kind", kind || "info");
  }

  function newIdempotencyKey() {
    if (window.crypto && window.crypto.randomUUID) {
      return window.crypto.randomUUID();
    }
    return String(Date.now()) + "-" + Math.random().toString(16).slice(2);
  }

  function refreshAvailability(inventoryId, row) {
    var url = page.dataset.availabilityTemplate.replace("{id}", encodeURIComponent(inventoryId));
    fetch(url).then(function (response) { return response.json(); }).then(function (payload) {
      if (typeof payload.available === "number") {
        row.children[2].textContent = String(payload.available);
      }
    });
  }

  function book(inventoryId, quantityInput, row) {
    var quantity = parseInt(quantityInput.value, 10) || 1;
    fetch(page.dataset.bookingsUrl, {
      method: "POST",
      headers: {"Content-Type": "application/json", "Idempotency-Key": newIdempotencyKey()},
      body: JSON.stringify({inventory_id: inventoryId, quantity: quantity})
    }).then(function (response) {
      return response.json().then(function (payload) { return {ok: response.ok, payload: payload}; });
    }).then(function (result) {
      if (!result.ok) {
        setStatus("Booking failed: " + result.payload.error, "error");
        if (result.payload.error === "insufficient_inventory") {
          refreshAvailability(inventoryId, row);
        }
        return;
      }
      window.location.href = page.dataset.bookingPagePrefix + encodeURIComponent(result.payload.id);
    }).catch(function (error) {
      setStatus("Booking failed: " + error, "error");
    });
  }

  function render(inventories) {
    rows.textContent = "";
    inventories.forEach(function (inventory) {
      var row = document.createElement("tr");
      row.setAttribute("data-inventory-id", inventory.id);
      [inventory.type, inventory.item_code, String(inventory.available)].forEach(function (value) {
        var cell = document.createElement("td");
        cell.textContent = value;
        row.appendChild(cell);
      });
      var quantityCell = document.createElement("td");
      var quantityInput = document.createElement("input");
      quantityInput.type = "number";
      quantityInput.min = "1";
      quantityInput.value = "1";
      quantityCell.appendChild(quantityInput);
      row.appendChild(quantityCell);
      var actionCell = document.createElement("td");
      var button = document.createElement("button");
      button.type = "button";
      button.textContent = "Book";
      button.disabled = inventory.available < 1;
      button.addEventListener("click", function () { book(inventory.id, quantityInput, row); });
      actionCell.appendChild(button);
      row.appendChild(actionCell);
      rows.appendChild(row);
    });
  }

  function load() {
    var url = page.dataset.inventoriesUrl;
    if (typeSelect.value) {
      url += "?type=" + encodeURIComponent(typeSelect.value);
    }
    setStatus("Loading...");
    fetch(url).then(function (response) {
      if (!response.ok) { throw new Error("HTTP " + response.status); }
      return response.json();
    }).then(function (payload) {
      render(payload.content || []);
      setStatus(payload.total_elements + " items");
    }).catch(function (error) {
      setStatus("Could not reach backend at " + page.dataset.apiBaseUrl + ": " + error.message, "error");
    });
  }

  typeSelect.addEventListener("change", load);
  load();
})();
</script>
</body>
</html>`

const bookingPageTemplateHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>{{.Styles}}</style>
</head>
<body id="booking-page"
  data-booking-id="{{.BookingID}}"
  data-bookings-url="{{.BookingsURL}}"
  data-booking-url="{{.BookingURL}}"
  data-payments-url="{{.PaymentsURL}}">
<main>
  <h1>{{.Title}}</h1>
  <dl id="booking-details">
    <dt>Status</dt><dd id="booking-status">Loading...</dd>
    <dt>Quantity</dt><dd id="booking-quantity"></dd>
    <dt>Hold expires</dt><dd id="booking-expires"></dd>
  </dl>
  <form id="payment-form">
    <label for="payment-amount">Amount</label>
    <input id="payment-amount" name="amount" type="text" inputmode="decimal" required>
    <button type="submit">Pay</button>
  </form>
  <div id="payment-status" class="status" role="status"></div>
  <a href="{{.SearchPagePath}}">Back to search</a>
</main>
{{.FooterHTML}}
<script>
(function () {
  var page = document.getElementById("booking-page");
  var paymentStatus = document.getElementById("payment-status");
  var bookingId = page.dataset.bookingId || new URLSearchParams(window.location.search).get("id") || "";
  var bookingUrl = page.dataset.bookingUrl || (page.dataset.bookingsUrl + "/" + encodeURIComponent(bookingId));
  var paymentsUrl = page.dataset.paymentsUrl || (bookingUrl + "/payments");

  function show(booking) {
    document.getElementById("booking-status").textContent = booking.status;
    document.getElementById("booking-quantity").textContent = String(booking.quantity);
    document.getElementById("booking-expires").textContent = booking.expires_at;
    document.getElementById("payment-form").hidden = booking.status !== "PENDING_PAYMENT";
  }

  fetch(bookingUrl).then(function (response) {
    return response.json().then(function (payload) { return {ok: response.ok, payload: payload}; });
  }).then(function (result) {
    if (!result.ok) {
      document.getElementById("booking-status").textContent = result.payload.error;
      return;
    }
    show(result.payload);
  });

  document.getElementById("payment-form").addEventListener("submit", function (event) {
    event.preventDefault();
    fetch(paymentsUrl, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({amount: document.getElementById("payment-amount").value})
    }).then(function (response) {
      return response.json().then(function (payload) { return {ok: response.ok, payload: payload}; });
    }).then(function (result) {
      if (!result.ok) {
        paymentStatus.textContent = "Payment failed: " + result.payload.error;
        paymentStatus.setAttribute("data-kind", "error");
        return;
      }
      show(result.payload.booking);
      paymentStatus.textContent = "Paid " + result.payload.payment.amount;
    });
  });
})();
</script>
</body>
</html>`
